package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v2"

	"github.com/g-e-o/mgs-compilation-tools/container/demo"
	"github.com/g-e-o/mgs-compilation-tools/container/vox"
)

func listArchive(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("Error reading %s\n", file)
		return err
	}

	files, err := unpackArchive(file, data)
	if err != nil {
		return err
	}

	fmt.Printf("Num Files %d\n\n", len(files))
	fmt.Println("Name            Offset   Block  Length")
	for _, f := range files {
		fmt.Printf("%-15s %08X %5d  %d\n", f.Name, f.Offset, f.Offset/0x800, len(f.Data))
	}
	return nil
}

type archiveFile struct {
	Name   string
	Offset int
	Data   []byte
}

func unpackArchive(file string, data []byte) ([]archiveFile, error) {
	var files []archiveFile
	switch {
	case strings.EqualFold(filepath.Base(file), "DEMO.DAT"):
		unpacked, err := demo.Unpack(data)
		if err != nil {
			return nil, err
		}
		for _, f := range unpacked {
			files = append(files, archiveFile{Name: f.Name, Offset: f.Offset, Data: f.Data})
		}
	case strings.EqualFold(filepath.Base(file), "VOX.DAT"):
		unpacked, err := vox.Unpack(data)
		if err != nil {
			return nil, err
		}
		for _, f := range unpacked {
			files = append(files, archiveFile{Name: f.Name, Offset: f.Offset, Data: f.Data})
		}
	default:
		return nil, fmt.Errorf("%s is not a DEMO.DAT or VOX.DAT archive", file)
	}
	return files, nil
}

func extractArchive(file, outDir string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	files, err := unpackArchive(file, data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return err
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(outDir, f.Name), f.Data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "mgsc"
	app.Usage = "Decompile and recompile MGS1 script bytecode and data archives"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:      "list",
			Aliases:   []string{"ls"},
			Usage:     "List the contents of a DEMO.DAT or VOX.DAT archive",
			ArgsUsage: "archive",
			Action: func(c *cli.Context) error {
				args := c.Args()
				if args.Len() < 1 {
					return cli.Exit("Insufficient arguments", 1)
				}
				return listArchive(args.First())
			},
		},
		{
			Name:      "extract",
			Aliases:   []string{"x"},
			Usage:     "Extract every file from a DEMO.DAT or VOX.DAT archive",
			ArgsUsage: "[--outdir outDir] archive",
			Action: func(c *cli.Context) error {
				args := c.Args()
				if args.Len() < 1 {
					return cli.Exit("No archive provided", 1)
				}
				if err := extractArchive(args.First(), c.String("outdir")); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "outdir",
					Value: ".",
					Usage: "output directory for extracted files",
				},
			},
		},
		{
			Name:      "decompile",
			Aliases:   []string{"d"},
			Usage:     "Decompile a game directory (RADIO.DAT plus stage .gcx files) to JSON",
			ArgsUsage: "--outdir outDir gameDir",
			Action:    decompileCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "outdir",
					Usage:    "output directory for decompiled files",
					Required: true,
				},
				&cli.BoolFlag{
					Name:  "padding",
					Value: true,
					Usage: "align RADIO.DAT dialogs to 0x800 blocks",
				},
			},
		},
		{
			Name:      "compile",
			Aliases:   []string{"c"},
			Usage:     "Recompile decompiled JSON back into RADIO.DAT and .gcx files",
			ArgsUsage: "--outdir outDir jsonDir",
			Action:    compileCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "outdir",
					Usage:    "output directory for compiled files",
					Required: true,
				},
				&cli.BoolFlag{
					Name:  "padding",
					Value: true,
					Usage: "align RADIO.DAT dialogs to 0x800 blocks",
				},
				&cli.BoolFlag{
					Name:  "pc-version",
					Usage: "emit PC voice codes and skip GCX end padding",
				},
			},
		},
	}
	app.Run(os.Args)
}
