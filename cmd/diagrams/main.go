// Package main generates architecture and component diagrams for spotseed.
//
// The diagrams are written as .dot files under docs/diagrams/go-diagrams/ and
// can be converted to images with Graphviz.
//
// Usage:
//
//	go run cmd/diagrams/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/blushft/go-diagrams/diagram"
	"github.com/blushft/go-diagrams/nodes/generic"
	"github.com/blushft/go-diagrams/nodes/programming"
)

func main() {
	if err := os.MkdirAll("docs/diagrams", 0o750); err != nil {
		log.Fatal("Failed to create output directory:", err)
	}
	if err := os.Chdir("docs/diagrams"); err != nil {
		log.Fatal("Failed to change directory:", err)
	}

	generateArchitectureDiagram()
	generateComponentDiagram()

	fmt.Println("Diagram .dot files generated successfully in ./docs/diagrams/go-diagrams/")
}

// generateArchitectureDiagram renders the data flow of one generate run:
// seeds, filtered recommendations, playlist reconciliation and cover upload.
func generateArchitectureDiagram() {
	d, err := diagram.New(diagram.Filename("architecture"), diagram.Label("spotseed Architecture"), diagram.Direction("TB"))
	if err != nil {
		log.Fatal(err)
	}

	user := generic.Blank.Blank(diagram.NodeLabel("User\n(terminal)"))
	cli := programming.Language.Go(diagram.NodeLabel("CLI\n(cobra)"))
	builder := programming.Language.Go(diagram.NodeLabel("Seed Builder"))
	recommender := programming.Language.Go(diagram.NodeLabel("Filter / Top-up Loop"))
	filter := programming.Language.Go(diagram.NodeLabel("Blacklist Filter\n(bloom + set)"))
	reconciler := programming.Language.Go(diagram.NodeLabel("Playlist Reconciler"))
	cover := programming.Language.Go(diagram.NodeLabel("Cover Generator\n(sha256 -> JPEG)"))
	gateway := programming.Language.Go(diagram.NodeLabel("Spotify Gateway\n(zmb3/spotify + LRU)"))
	spotifyAPI := generic.Blank.Blank(diagram.NodeLabel("Spotify Web API"))
	store := generic.Blank.Blank(diagram.NodeLabel("Config Store\n(SQLite)"))
	token := generic.Blank.Blank(diagram.NodeLabel("Token Cache\n(oauth2)"))

	d.Connect(user, cli, diagram.Forward())
	d.Connect(cli, builder, diagram.Forward())
	d.Connect(builder, recommender, diagram.Forward())
	d.Connect(recommender, filter, diagram.Forward())
	d.Connect(recommender, reconciler, diagram.Forward())
	d.Connect(reconciler, cover, diagram.Forward())
	d.Connect(builder, gateway, diagram.Forward())
	d.Connect(recommender, gateway, diagram.Forward())
	d.Connect(reconciler, gateway, diagram.Forward())
	d.Connect(gateway, spotifyAPI, diagram.Forward())
	d.Connect(gateway, token, diagram.Forward())
	d.Connect(filter, store, diagram.Forward())
	d.Connect(reconciler, store, diagram.Forward())

	if err := d.Render(); err != nil {
		log.Fatal(err)
	}
}

// generateComponentDiagram renders the package dependencies.
func generateComponentDiagram() {
	d, err := diagram.New(diagram.Filename("components"), diagram.Label("spotseed Components"), diagram.Direction("LR"))
	if err != nil {
		log.Fatal(err)
	}

	main := programming.Language.Go(diagram.NodeLabel("main.go"))
	rootCmd := programming.Language.Go(diagram.NodeLabel("cmd/spotseed\nroot.go"))
	generateCmd := programming.Language.Go(diagram.NodeLabel("cmd/spotseed\ngenerate.go"))
	session := programming.Language.Go(diagram.NodeLabel("internal/session\nsession.go"))

	seed := programming.Language.Go(diagram.NodeLabel("internal/seed\nbuilder.go, tune.go"))
	search := programming.Language.Go(diagram.NodeLabel("internal/search\ngenre_suggester.go"))
	recommend := programming.Language.Go(diagram.NodeLabel("internal/recommend\nrecommend.go"))
	blacklist := programming.Language.Go(diagram.NodeLabel("internal/blacklist\nblacklist.go"))
	playlist := programming.Language.Go(diagram.NodeLabel("internal/playlist\nplaylist.go"))
	cover := programming.Language.Go(diagram.NodeLabel("internal/cover\ncover.go"))
	spotify := programming.Language.Go(diagram.NodeLabel("internal/spotify\nservice.go, client.go"))
	store := programming.Language.Go(diagram.NodeLabel("internal/store\nstore.go"))

	config := programming.Language.Go(diagram.NodeLabel("pkg/config\nconfig.go"))
	version := programming.Language.Go(diagram.NodeLabel("pkg/version\nversion.go"))
	man := programming.Language.Go(diagram.NodeLabel("pkg/man\nman.go"))

	d.Connect(main, rootCmd, diagram.Forward())
	d.Connect(rootCmd, generateCmd, diagram.Forward())
	d.Connect(generateCmd, session, diagram.Forward())
	d.Connect(session, seed, diagram.Forward())
	d.Connect(seed, search, diagram.Forward())
	d.Connect(session, recommend, diagram.Forward())
	d.Connect(recommend, blacklist, diagram.Forward())
	d.Connect(session, playlist, diagram.Forward())
	d.Connect(playlist, cover, diagram.Forward())
	d.Connect(rootCmd, spotify, diagram.Forward())
	d.Connect(rootCmd, store, diagram.Forward())
	d.Connect(rootCmd, config, diagram.Forward())
	d.Connect(rootCmd, version, diagram.Forward())
	d.Connect(rootCmd, man, diagram.Forward())

	if err := d.Render(); err != nil {
		log.Fatal(err)
	}
}
