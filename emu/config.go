package emu

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"dmgo/emu/log"
	"dmgo/hw/input"
	"dmgo/hw/shaders"
)

type Config struct {
	Input     input.Config    `toml:"input"`
	Video     VideoConfig     `toml:"video"`
	Emulation EmulationConfig `toml:"emulation"`
	Audio     AudioConfig     `toml:"audio"`

	TraceOut io.WriteCloser `toml:"-"`
}

type VideoConfig struct {
	DisableVSync bool   `toml:"disable_vsync"`
	Monitor      int32  `toml:"monitor"`
	Scale        int    `toml:"scale"`
	Shader       string `toml:"shader"`
}

func (vcfg *VideoConfig) Check() {
	// Ensure we have a valid shader.
	if vcfg.Shader == "" {
		vcfg.Shader = shaders.DefaultName
	}
	if !slices.Contains(shaders.Names(), vcfg.Shader) {
		log.ModEmu.Warnf("Invalid shader name %q, fallback to %q", vcfg.Shader, shaders.DefaultName)
		vcfg.Shader = shaders.DefaultName
	}
}

type AudioConfig struct {
	DisableAudio bool `toml:"disable_audio"`
}

type EmulationConfig struct {
	// Model forces the emulated machine: "dmg", "cgb", or empty to follow
	// the cartridge header.
	Model string `toml:"model"`

	// BootROM is the path of an optional boot image. Without one execution
	// starts directly at the cartridge entry point with post-boot register
	// values.
	BootROM string `toml:"boot_rom"`
}

var ConfigDir string = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("dmgo")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})()

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the dmgo config
// directory, or provides a default one.
func LoadConfigOrDefault() Config {
	var cfg Config
	_, err := toml.DecodeFile(filepath.Join(ConfigDir, cfgFilename), &cfg)
	if err != nil {
		return Config{}
	}
	return cfg
}

// SaveConfig into the dmgo config directory.
func SaveConfig(cfg Config) error {
	f, err := os.Create(filepath.Join(ConfigDir, cfgFilename))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
