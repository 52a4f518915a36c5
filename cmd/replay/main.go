// Command replay checks recorded journals against a fresh run of the rule
// engine, and lists the games kept in the sqlite index.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/Morgana119/spaceRescue/journal"
)

func main() {
	path := flag.String("journal", "", "journal file (.jsonl.zst) to replay")
	indexPath := flag.String("index", "", "sqlite index to summarize")
	verbose := flag.Bool("v", false, "print the diverging snapshots")
	flag.Parse()

	if *path == "" && *indexPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	code := 0
	if *indexPath != "" {
		if err := summarize(*indexPath); err != nil {
			log.Errorf("index: %v", err)
			code = 1
		}
	}
	if *path != "" {
		if err := replay(*path, *verbose); err != nil {
			log.Errorf("replay: %v", err)
			code = 1
		}
	}
	os.Exit(code)
}

func replay(path string, verbose bool) error {
	setup, turns, err := journal.Read(path)
	if err != nil {
		return err
	}
	n, err := journal.Replay(setup, turns)
	if err != nil {
		var mm *journal.MismatchError
		if verbose && errors.As(err, &mm) {
			fmt.Printf("recorded: %s\nreplayed: %s\n", mm.Recorded, mm.Replayed)
		}
		return fmt.Errorf("%s: %d/%d turns matched: %w", path, n, len(turns), err)
	}
	status := "none"
	if len(turns) > 0 {
		status = turns[len(turns)-1].Status
	}
	fmt.Printf("%s: seed=%d turns=%d status=%s OK\n", path, setup.Seed, n, status)
	return nil
}

func summarize(path string) error {
	ix, err := journal.OpenIndex(path)
	if err != nil {
		return err
	}
	defer ix.Close()
	games, err := ix.Games(context.Background())
	if err != nil {
		return err
	}
	for _, g := range games {
		fmt.Printf("%s seed=%d agents=%d turns=%d status=%s damaged=%d saved=%d dead=%d\n",
			g.GameId, g.Seed, len(g.Agents), g.Turns, g.Status, g.DamagedWalls, g.SavedVictims, g.DeadVictims)
	}
	return nil
}
