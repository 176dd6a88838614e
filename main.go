package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"dmgo/cart"
	"dmgo/emu"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case runMode:
		cfg := emu.LoadConfigOrDefault()
		emuMain(cli.Run, cfg)
	case romInfosMode:
		rom, err := cart.Open(cli.RomInfos.RomPath)
		checkf(err, "failed to open rom")
		fmt.Println(rom.Header.String())
	case versionMode:
		fmt.Println("dmgo", version())
	}
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}
