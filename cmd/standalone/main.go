//go:build !libretro

package main

import (
	"flag"
	"log"
	"strconv"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/emopl/adapter"
)

func main() {
	droPath := flag.String("dro", "", "path to DRO capture (opens UI if not provided)")
	regionFlag := flag.String("region", "auto", "frame rate: auto, ntsc (60 Hz) or pal (50 Hz)")
	loop := flag.Bool("loop", false, "restart the capture when it ends")
	flag.Parse()

	factory := &adapter.Factory{}

	if *droPath != "" {
		options := map[string]string{
			"loop": strconv.FormatBool(*loop),
		}
		if err := standalone.RunDirect(factory, *droPath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
