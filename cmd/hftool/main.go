// hftool is a CLI utility for creating, inspecting and editing heightfield
// snapshots without opening the editor.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/terraedit/internal/logger"
)

var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err := logger.InitCLI(os.Getenv("HFTOOL_LOG"), ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			if !errors.Is(err, flag.ErrHelp) {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch command {
	case "new":
		return cmdNew(args, out)
	case "info":
		return cmdInfo(args, out)
	case "paint":
		return cmdPaint(args, out)
	case "smooth":
		return cmdSmooth(args, out)
	case "plan":
		return cmdPlan(args, out)
	case "export":
		return cmdExport(args, out)
	case "normalize":
		return cmdNormalize(args, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	}
	printUsage(os.Stderr)
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `hftool - heightfield snapshot utility

Usage:
  hftool <command> [options]

Commands:
  new <file> [-size N] [-fill H]           Create a flat snapshot
  info <file>                              Show dimensions and height range
  paint <file> -u U -v V [brush options]   Raise (or -lower) the terrain at uv
  smooth <file> -u U -v V [options]        Smooth the terrain at uv
  plan <file> -tool T -u U -v V            Print the command stream of one update
  export <file> <out.png|tif> [-normals]   Write heights or normals as PNG or TIFF
  normalize <file> [-out FILE]             Rescale heights so the largest |h| is 1

Brush options:
  -size N -strength S -falloff sine|gaussian|constant -sigma S
  -distance rectangle|circular -config FILE -out FILE -save-config FILE

Examples:
  hftool new island.tehf -size 512
  hftool paint island.tehf -u 0.5 -v 0.5 -size 64 -strength 20
  hftool smooth island.tehf -u 0.5 -v 0.5 -size 32 -commit
  hftool export island.tehf normals.png -normals
  hftool export island.tehf heights.tif
  hftool normalize imported.tehf

Set HFTOOL_LOG=debug to trace the submitted streams.`)
}
