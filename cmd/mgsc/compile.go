package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v2"

	"github.com/g-e-o/mgs-compilation-tools/gcx"
	"github.com/g-e-o/mgs-compilation-tools/radio"
)

func compileCmd(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 1 {
		return cli.Exit("No input directory provided", 1)
	}
	inDir := args.First()
	outDir := c.String("outdir")

	// The DEMO.DAT/VOX.DAT archives next to the JSON provide the block
	// indexes symbolic references resolve back to.
	table, hasVox, err := archiveTable(inDir)
	if err != nil {
		return cli.Exit(err, 1)
	}
	pcVersion := c.Bool("pc-version") || !hasVox

	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return cli.Exit(err, 1)
	}

	// Radio dialogs first: compiling them produces the call descriptor
	// table the stage scripts' rd_* references need.
	radioDir := filepath.Join(inDir, "RADIO")
	if entries, err := os.ReadDir(radioDir); err == nil {
		var dialogs []radio.Dialog
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			doc, err := os.ReadFile(filepath.Join(radioDir, entry.Name()))
			if err != nil {
				return cli.Exit(err, 1)
			}
			var d radio.Dialog
			if err := json.Unmarshal(doc, &d); err != nil {
				return cli.Exit(fmt.Sprintf("%s: %v", entry.Name(), err), 1)
			}
			dialogs = append(dialogs, d)
		}

		enc := radio.NewEncoder()
		enc.Resolver = table
		enc.PCVersion = pcVersion
		enc.Padding = c.Bool("padding")
		data, calls, err := enc.EncodeArchive(dialogs)
		if err != nil {
			return cli.Exit(err, 1)
		}
		for name, call := range calls {
			table.AddRadioCall(name, call)
		}
		if err := os.WriteFile(filepath.Join(outDir, "RADIO.DAT"), data, 0644); err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Printf("Compiled %d radio dialogs\n", len(dialogs))
	}

	// Every stage .json below the input directory, skipping the RADIO
	// dialogs handled above.
	err = filepath.Walk(inDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".json") {
			return err
		}
		if rel, relErr := filepath.Rel(radioDir, path); relErr == nil && !strings.HasPrefix(rel, "..") {
			return nil
		}
		doc, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var file gcx.File
		if err := json.Unmarshal(doc, &file); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		file.PCVersion = pcVersion

		enc := gcx.NewEncoder()
		enc.Resolver = table
		data, err := enc.EncodeFile(&file)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(rel, ".json")+".gcx")
		if err := os.MkdirAll(filepath.Dir(outPath), os.ModePerm); err != nil {
			return err
		}
		fmt.Printf("Compiled %s\n", rel)
		return os.WriteFile(outPath, data, 0644)
	})
	if err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}
