package main

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/veandco/go-sdl2/sdl"

	"dmgo/cart"
	"dmgo/emu"
	"dmgo/emu/rpc"
)

// emuMain runs the emulator directly with the given rom.
func emuMain(args Run, cfg emu.Config) {
	var exitcode int
	sdl.Main(func() {
		rom, err := cart.Open(args.RomPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading ROM: %s", err)
			exitcode = 1
			return
		}

		var traceout io.WriteCloser
		if args.Trace != nil {
			traceout = args.Trace
			defer traceout.Close()
		}

		cfg.TraceOut = traceout
		cfg.Video.Monitor = args.Monitor
		if args.Model != "" {
			cfg.Emulation.Model = args.Model
		}
		if args.BootROM != "" {
			cfg.Emulation.BootROM = args.BootROM
		}
		if args.NoAudio {
			cfg.Audio.DisableAudio = true
		}

		emulator, err := emu.Launch(rom, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
			exitcode = 1
			return
		}

		if args.CPUProfile != "" {
			f, err := os.Create(args.CPUProfile)
			checkf(err, "failed to create cpu profile file")
			checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
			defer func() {
				pprof.StopCPUProfile()
				f.Close()
				fmt.Println("CPU profile written to", args.CPUProfile)
			}()
		}

		if args.Port != 0 {
			server, err := rpc.NewServer(args.Port, emulator)
			if err != nil {
				fmt.Fprintf(os.Stderr, "RPC error: %v", err)
				exitcode = 1
				return
			}
			defer server.Close()
		}

		emulator.Run()
	})
	os.Exit(exitcode)
}
