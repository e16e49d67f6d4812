/*
 * cpm68k-go - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/kobolt/cpm68k-go/emu/cpu"
	"github.com/kobolt/cpm68k-go/emu/hostservice"
	"github.com/kobolt/cpm68k-go/emu/loader"
	"github.com/kobolt/cpm68k-go/emu/memory"
	logger "github.com/kobolt/cpm68k-go/util/logger"
)

const (
	defaultBIOSFile  = "cpm68k.srec"
	defaultEntryAddr = 0xFF0000
)

var Logger *slog.Logger

func main() {
	optHelp := getopt.BoolLong("help", 'h', "Display this help")
	optDump := getopt.BoolLong("dump", 'd', "Dump the trace ring to stdout on exit")
	optBIOS := getopt.StringLong("bios", 'b', defaultBIOSFile, "Use S-record FILE as CP/M and BIOS instead of the default")
	optEntry := getopt.StringLong("entry", 'e', "", "Entry point at (hex) ADDR instead of the default")
	optInject := getopt.StringLong("inject", 'i', "", "Inject STR as input to the console")
	optInjectFile := getopt.StringLong("inject-file", 'I', "", "Inject text from FILE as input to the console")
	optDiskB := getopt.StringLong("diskb", 'B', "", "Load FILE into RAM disk B")
	optDiskC := getopt.StringLong("diskc", 'C', "", "Load FILE into RAM disk C")
	optDiskD := getopt.StringLong("diskd", 'D', "", "Load FILE into RAM disk D")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	getopt.SetParameters("[ramdisk-image]")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	debug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	Logger.Info("cpm68k-go started")

	entry := uint32(defaultEntryAddr)
	if *optEntry != "" {
		v, err := strconv.ParseUint(*optEntry, 16, 32)
		if err != nil {
			Logger.Error("invalid entry point", "value", *optEntry, "error", err.Error())
			os.Exit(1)
		}
		entry = uint32(v)
	}

	mem := memory.New()
	if err := loader.LoadSRecord(mem, *optBIOS); err != nil {
		Logger.Error("loading CP/M and BIOS file failed", "file", *optBIOS, "error", err.Error())
		os.Exit(1)
	}

	console := hostservice.NewStdConsole(os.Stdin, os.Stdout)
	service := hostservice.New(console, Logger)

	for letter, filename := range map[byte]*string{'B': optDiskB, 'C': optDiskC, 'D': optDiskD} {
		if *filename == "" {
			continue
		}
		disk := int(letter - 'A')
		if err := service.LoadDisk(disk, *filename); err != nil {
			Logger.Error("loading RAM disk failed", "drive", string(letter), "file", *filename, "error", err.Error())
			os.Exit(1)
		}
	}

	if args := getopt.Args(); len(args) > 0 {
		if err := service.LoadDisk(0, args[0]); err != nil {
			Logger.Error("loading RAM disk A failed", "file", args[0], "error", err.Error())
			os.Exit(1)
		}
	}

	if *optInjectFile != "" {
		if err := console.InjectFile(*optInjectFile); err != nil {
			Logger.Error("injecting file failed", "file", *optInjectFile, "error", err.Error())
			os.Exit(1)
		}
	}
	if *optInject != "" {
		console.Inject(*optInject)
	}

	c := cpu.New()
	c.SetTrapHook(service)
	c.SetPC(entry)

	var breakRequested atomic.Bool

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for !breakRequested.Load() {
			select {
			case <-service.Quit():
				return
			default:
			}
			c.Step(mem)
		}
	}()

	select {
	case <-sigChan:
		fmt.Println("Got quit signal")
		breakRequested.Store(true)
		c.SetBreak(true)
		<-done
	case <-service.Quit():
	case <-done:
	}

	if *optDump {
		c.Dump(os.Stdout, false)
	}

	Logger.Info("cpm68k-go stopped")
}
