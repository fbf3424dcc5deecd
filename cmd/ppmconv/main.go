package main

import (
	"fmt"
	"image"
	"io"
	"log"
	"os"

	"github.com/echoflaresat/pinhole/output"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input.ppm|-> <output.{png,jpg,tif}>\n", os.Args[0])
		os.Exit(1)
	}

	input, out := os.Args[1], os.Args[2]

	img, err := readInput(input)
	if err != nil {
		log.Fatalf("Could not read input %q: %v", input, err)
	}

	fmt.Printf("-> creating %s (%dx%d)\n", out, img.Bounds().Dx(), img.Bounds().Dy())
	if err := output.Save(out, img); err != nil {
		log.Fatal(err)
	}
}

// readInput decodes a P3 stream from path, or from stdin for "-".
func readInput(path string) (image.Image, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return output.ReadPPM(r)
}
