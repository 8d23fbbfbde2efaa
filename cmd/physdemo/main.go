// Command physdemo opens a window and draws a small physics scene with the
// debug panel on top.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hubastard/physdraw/engine/config"
	"github.com/hubastard/physdraw/engine/core"
	glbackend "github.com/hubastard/physdraw/engine/gfx/gl"
	"github.com/hubastard/physdraw/engine/log"
	"github.com/hubastard/physdraw/engine/platform"
	"github.com/hubastard/physdraw/engine/profiler"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file")
		writeConfig = flag.Bool("write-config", false, "print the default config and exit")
	)
	flag.Parse()

	if *writeConfig {
		data, err := config.Defaults().Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log.Init(log.ApplyEnv(log.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}))
	profiler.Init(1 << 10) // ~1K scope samples

	if err := run(cfg); err != nil {
		log.L().Error("physdemo failed", "err", err)
		_ = log.Close()
		os.Exit(1)
	}
	_ = log.Close()
}

func run(cfg config.Config) error {
	coreCfg := core.Config{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		VSync:  cfg.Window.VSync,
	}
	newWindow := func(c core.Config) (core.Window, error) {
		return platform.NewGLFWWindow(c)
	}
	newDevice := func(win core.Window, c core.Config) (core.Device, error) {
		return glbackend.New(win, core.DeviceOptions{Power: core.PowerHighPerformance, VSync: c.VSync})
	}
	return core.Run(newApp(cfg), coreCfg, newWindow, newDevice)
}
