package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/driftpad/driftpad/client/tui"
	"github.com/driftpad/driftpad/crdt"
	"github.com/driftpad/driftpad/delta"
	"github.com/driftpad/driftpad/editor"
	"github.com/driftpad/driftpad/engine"
	"github.com/driftpad/driftpad/store/remote"
)

var (
	flags    Flags
	logger   = logrus.New()
	fileName string

	buf *editor.Buffer
	eng *engine.Engine
	vw  *view

	// redraw is signalled whenever the engine changes the buffer.
	redraw = make(chan struct{}, 1)
)

func main() {
	flags = parseFlags()
	fileName = flags.File

	logFile, debugLogFile, err := setupLogger(logger)
	if err != nil {
		fmt.Printf("Failed to setup logger, exiting: %s\n", err)
		return
	}
	defer closeLogFiles(logFile, debugLogFile)

	name := "guest"
	if flags.Login {
		name, err = tui.Prompt()
		if err != nil {
			fmt.Println("Goodbye!")
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := remote.Dial(ctx, serverURL(flags), name, logger)
	if err != nil {
		color.Red("Connection error, exiting: %s", err)
		os.Exit(0)
	}
	defer st.Close()

	buf = editor.NewBuffer()
	vw = newView()
	buf.OnChange(func(delta.Delta) {
		vw.setCells(buf.Cells())
		select {
		case redraw <- struct{}{}:
		default:
		}
	})

	eng, err = engine.New(engine.Config{
		Store:     st,
		Editor:    buf,
		Generator: crdt.SiteGenerator{Site: st.Site()},
		Logger:    logger,
	})
	if err != nil {
		color.Red("Engine error, exiting: %s", err)
		os.Exit(0)
	}

	if err := eng.Start(ctx); err != nil {
		color.Red("Sync error, exiting: %s", err)
		os.Exit(0)
	}

	go func() {
		_ = eng.Run(ctx)
	}()

	logger.Infof("session started as %s (site %d)", name, st.Site())

	if err := runUI(); err != nil {
		fmt.Printf("UI error, exiting: %s\n", err)
		os.Exit(0)
	}
}
