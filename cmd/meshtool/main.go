// meshtool is a CLI utility for inspecting and producing MSHZ model files.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/internal/engine/dispose"
	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/loader"
	"github.com/Faultbox/retroscene/internal/engine/renderer"
	"github.com/Faultbox/retroscene/pkg/math"
	"github.com/Faultbox/retroscene/pkg/meshz"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "tree":
		cmdTree(args)
	case "sample":
		cmdSample(args)
	case "verify":
		cmdVerify(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - MSHZ model utility

Usage:
  meshtool <command> [options]

Commands:
  info <file.mshz>      Show header and content counts
  tree <file.mshz>      Print the node hierarchy
  sample <out.mshz>     Write a demo retro computer model
  verify <file.mshz>    Decode, upload headlessly and dispose; report leaks

Examples:
  meshtool sample assets/retro_computer.mshz
  meshtool tree assets/retro_computer.mshz
  meshtool verify -max-mb 16 assets/retro_computer.mshz`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func decode(path string, maxMB int) *meshz.Asset {
	var opts meshz.DecodeOptions
	if maxMB > 0 {
		opts.MaxPayload = uint32(maxMB) << 20
	}
	a, err := meshz.DecodeFile(path, opts)
	if err != nil {
		fail("%v", err)
	}
	return a
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info <file.mshz>")
		os.Exit(1)
	}

	f, err := os.Open(args[0])
	if err != nil {
		fail("%v", err)
	}
	header, err := meshz.ReadHeader(f)
	f.Close()
	if err != nil {
		fail("%v", err)
	}
	a := decode(args[0], 0)

	ratio := 0.0
	if header.UncompressedSize > 0 {
		ratio = float64(header.CompressedSize) / float64(header.UncompressedSize) * 100
	}
	fmt.Printf("File:      %s\n", args[0])
	fmt.Printf("Version:   %d\n", header.Version)
	fmt.Printf("Payload:   %d bytes (%d compressed, %.1f%%)\n", header.UncompressedSize, header.CompressedSize, ratio)
	fmt.Printf("Checksum:  %08x\n", header.Checksum)
	fmt.Println()
	fmt.Printf("Nodes:     %d\n", len(a.Nodes))
	fmt.Printf("Meshes:    %d\n", len(a.Meshes))
	fmt.Printf("Materials: %d\n", len(a.Materials))
	fmt.Printf("Textures:  %d\n", len(a.Textures))
	fmt.Printf("Vertices:  %d\n", a.VertexCount())
	fmt.Printf("Triangles: %d\n", a.TriangleCount())
}

func cmdTree(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool tree <file.mshz>")
		os.Exit(1)
	}
	a := decode(args[0], 0)
	for _, root := range a.Roots() {
		printNode(a, root, 0)
	}
}

func printNode(a *meshz.Asset, i, depth int) {
	n := a.Nodes[i]
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Name)
	if n.Name == "" {
		b.WriteString("(unnamed)")
	}
	if n.Mesh >= 0 {
		m := a.Meshes[n.Mesh]
		fmt.Fprintf(&b, "  mesh=%s tris=%d", m.Name, len(m.Indices)/3)
	}
	if n.Material >= 0 {
		fmt.Fprintf(&b, "  material=%s", a.Materials[n.Material].Name)
	}
	fmt.Println(b.String())

	for _, c := range a.Children(i) {
		printNode(a, c, depth+1)
	}
}

func cmdSample(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool sample <out.mshz>")
		os.Exit(1)
	}
	a, err := sampleAsset()
	if err != nil {
		fail("%v", err)
	}
	if err := meshz.EncodeFile(args[0], a); err != nil {
		fail("%v", err)
	}
	fmt.Printf("Wrote %s (%d nodes, %d triangles)\n", args[0], len(a.Nodes), a.TriangleCount())
}

func cmdVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	maxMB := fs.Int("max-mb", 0, "Payload size limit in MB (0 = default)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool verify [-max-mb N] <file.mshz>")
		os.Exit(1)
	}

	report, err := verify(decode(fs.Arg(0), *maxMB))
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("Uploaded:  %d geometries, %d textures, %d uniform blocks\n",
		report.info.Geometries, report.info.Textures, report.info.UniformBlocks)
	fmt.Printf("Drawn:     %d calls, %d triangles\n", report.info.Calls, report.info.Triangles)
	fmt.Printf("Released:  %d\n", report.stats.Released)
	fmt.Printf("Leaked:    %d\n", len(report.leaked))
	for _, h := range report.leaked {
		fmt.Printf("  %s\n", h)
	}
	if len(report.leaked) > 0 {
		os.Exit(1)
	}
}

type verifyReport struct {
	info   gpu.Info
	stats  dispose.Stats
	leaked []gpu.Handle
}

// verify builds the asset's graph, draws it once on a headless device and
// disposes everything, recording what stayed live.
func verify(a *meshz.Asset) (verifyReport, error) {
	root, err := loader.Build(a, nil)
	if err != nil {
		return verifyReport{}, err
	}

	dev := gpu.NewRecorder()
	r, err := renderer.New(dev, renderer.Options{Width: 640, Height: 480, PixelRatio: 1}, nil)
	if err != nil {
		return verifyReport{}, err
	}
	cam := camera.NewPerspective(50, 640.0/480, 0.1, 1000)
	cam.SetPosition(math.Vec3{Z: 5})
	cam.LookAt(math.Vec3{})
	root.Add(cam.Node)

	renderErr := r.Render(root, cam, gpu.Handle{})
	info := dev.Info()

	stats := dispose.New(dev, nil).Dispose(root, r)
	return verifyReport{info: info, stats: stats, leaked: dev.Live()}, renderErr
}
