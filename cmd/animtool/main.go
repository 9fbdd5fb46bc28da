// animtool inspects rig files and plays their clips headless.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/highlands/internal/config"
	"github.com/Faultbox/highlands/internal/logger"
)

var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := &tool{cfg: cfg, out: os.Stdout}
	command, rest := args[0], args[1:]

	switch command {
	case "info":
		err = t.info(rest)
	case "sample":
		err = t.sample(rest)
	case "play":
		err = t.play(ctx, rest)
	case "watch":
		err = t.watch(ctx, rest)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`animtool - skeletal animation rig utility

Usage:
  animtool [global flags] <command> [options]

Commands:
  info <rig.yaml>                        Show joints, skins and clips
  sample <rig.yaml> <clip> <time> [path] Print joint poses at a clip time
  play <rig.yaml> <clip> [-seconds N]    Play a clip and print joint positions
  watch <rig.yaml> [clip]                Play continuously, reloading on change

Global flags:
  -config <file>   Config file (default: ./config.yaml or user config dir)
  -debug           Debug logging
  -speed <x>       Default clip speed
  -fps <n>         Playback ticks per second
  -workers <n>     Parallel character updates
  -no-repeat       Play clips once
  -watch           Reload the rig during play when its file changes

Rig arguments that are not found as given are looked up in the data.rig_paths
directories from the config file, with .yaml added when missing.

Examples:
  animtool info rigs/knight.yaml
  animtool info knight
  animtool sample rigs/knight.yaml idle 0.5 root/hips
  animtool -fps 30 play rigs/knight.yaml nod -seconds 2`)
}
