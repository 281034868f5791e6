// SPDX-License-Identifier: Unlicense OR MIT

// Command zngsub-headless drives the application loop against an
// in-process Loopback view-process connection, with no real
// GPU/window backend. It exists purely to exercise the library end to
// end, the way the teacher's standalone example programs do.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SamRodri/zng-sub001/event"
	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/loop"
	"github.com/SamRodri/zng-sub001/vars"
	"github.com/SamRodri/zng-sub001/viewprocess"
	"github.com/SamRodri/zng-sub001/wtree"
	"github.com/SamRodri/zng-sub001/zid"
)

type options struct {
	frames  int
	verbose bool
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:   "zngsub-headless",
		Short: "Run the reactive UI loop against an in-process view-process for N frames",
		Long: `zngsub-headless drives loop.Loop with a viewprocess.Loopback backend
and no real window, useful for smoke-testing the runtime in CI or by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(opts)
		},
	}
	root.Flags().IntVar(&opts.frames, "frames", 10, "number of loop cycles to run before exiting")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runHeadless(opts options) error {
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	window := zid.NewWindowId()
	root := zid.NewWidgetId()

	bus := event.NewBus()
	hub := vars.NewHub()
	conn := viewprocess.NewLoopback()
	defer conn.Close()

	var tree *wtree.Tree
	walk := func(visit func(id zid.WidgetId, path zid.WidgetPath) (cont bool)) {
		if tree == nil {
			return
		}
		tree.Walk(func(w *wtree.WidgetInfo) bool {
			return visit(w.Id, w.Path())
		})
	}

	rootBounds := layout.NewBoundsInfo()
	rebuildInfo := func() {
		b := wtree.NewBuilder(window, root, rootBounds, layout.BorderInfo{}, 1, tree)
		tree = b.Finalize()
		logrus.WithField("generation", tree.Generation).Debug("info pass complete")
	}

	frameCount := 0
	l := loop.New(bus, hub, walk, nil, rebuildInfo, nil, func() {
		frameCount++
		logrus.WithField("frame", frameCount).Info("frame sent")
		conn.Send(viewprocess.Message{Kind: viewprocess.MsgFrameRendered})
	})
	l.RequestInfo()
	l.RequestRender()

	deadline := time.Now().Add(time.Second)
	for i := 0; i < opts.frames; i++ {
		l.RequestRender()
		flow := l.RunOnce(nil)
		if flow == loop.Exit {
			break
		}
		if _, ok := conn.Recv(deadline); !ok {
			break
		}
	}

	fmt.Printf("rendered %d frame(s)\n", frameCount)
	return nil
}
