package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v2"

	"github.com/g-e-o/mgs-compilation-tools/container/demo"
	"github.com/g-e-o/mgs-compilation-tools/container/vox"
	"github.com/g-e-o/mgs-compilation-tools/gcx"
	"github.com/g-e-o/mgs-compilation-tools/radio"
	"github.com/g-e-o/mgs-compilation-tools/resolver"
)

// archiveTable unpacks DEMO.DAT and VOX.DAT from gameDir (either may be
// absent) and registers their names in a fresh resolver table.
func archiveTable(gameDir string) (*resolver.Table, bool, error) {
	table := resolver.NewTable()

	if data, err := os.ReadFile(filepath.Join(gameDir, "DEMO.DAT")); err == nil {
		files, err := demo.Unpack(data)
		if err != nil {
			return nil, false, err
		}
		for i := range files {
			table.AddDemo(files[i].Name, files[i].BlockIndex())
		}
	}

	hasVox := false
	if data, err := os.ReadFile(filepath.Join(gameDir, "VOX.DAT")); err == nil {
		hasVox = true
		files, err := vox.Unpack(data)
		if err != nil {
			return nil, false, err
		}
		for i := range files {
			table.AddVox(files[i].Name, files[i].BlockIndex())
		}
	}

	return table, hasVox, nil
}

func decompileCmd(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 1 {
		return cli.Exit("No game directory provided", 1)
	}
	gameDir := args.First()
	outDir := c.String("outdir")

	table, _, err := archiveTable(gameDir)
	if err != nil {
		return cli.Exit(err, 1)
	}

	// RADIO.DAT first: the stage scripts reference its dialogs by name.
	radioData, err := os.ReadFile(filepath.Join(gameDir, "RADIO.DAT"))
	if err == nil {
		dec := radio.NewDecoder(radioData)
		dec.Resolver = table
		arc, err := dec.DecodeArchive(c.Bool("padding"))
		if err != nil {
			return cli.Exit(err, 1)
		}

		radioDir := filepath.Join(outDir, "RADIO")
		if err := os.MkdirAll(radioDir, os.ModePerm); err != nil {
			return cli.Exit(err, 1)
		}
		for i := range arc.Dialogs {
			d := &arc.Dialogs[i]
			table.AddRadioDialog(d.Name, d.Offset, 0)
			doc, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := os.WriteFile(filepath.Join(radioDir, d.Name+".json"), doc, 0644); err != nil {
				return cli.Exit(err, 1)
			}
		}
		fmt.Printf("Decompiled %d radio dialogs\n", len(arc.Dialogs))
	}

	// Every .gcx below the game directory.
	err = filepath.Walk(gameDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".gcx") {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		file, err := gcx.DecodeFile(data, table)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		doc, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(gameDir, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".json")
		if err := os.MkdirAll(filepath.Dir(outPath), os.ModePerm); err != nil {
			return err
		}
		fmt.Printf("Decompiled %s\n", rel)
		return os.WriteFile(outPath, doc, 0644)
	})
	if err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}
