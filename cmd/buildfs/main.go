// buildfs packs audio clips into a flashable filesystem image. File
// order on the command line defines the clip indices the firmware uses,
// so -list prints the expected manifest order.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"turretcode-go/simplefs"
	"turretcode-go/sound"
)

func main() {
	out := flag.String("o", "clips.img", "output image path")
	list := flag.Bool("list", false, "print the expected clip order and exit")
	flag.Parse()

	if *list {
		for c := sound.Clip(0); c < sound.NumClips; c++ {
			fmt.Printf("%2d %s\n", c.FileIndex(), c)
		}
		return
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: buildfs [-o image] clip0.raw clip1.raw ...")
		os.Exit(2)
	}
	if len(files) != int(sound.NumClips) {
		fmt.Fprintf(os.Stderr, "warning: %d files, firmware expects %d clips\n", len(files), sound.NumClips)
	}

	inputs := make([]simplefs.Input, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fatal(err)
		}
		inputs = append(inputs, simplefs.Input{Name: filepath.Base(path), Data: data})
	}

	img, err := simplefs.BuildImage(inputs)
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(*out, img, 0o644); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s: %d files, %d bytes\n", *out, len(inputs), len(img))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "buildfs:", err)
	os.Exit(1)
}
