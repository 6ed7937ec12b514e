// Command arcontrol edits a running visualizer from the terminal over its
// control websocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/controlui"
	"github.com/iburimskiy/audio-reactive/internal/logging"
	"github.com/iburimskiy/audio-reactive/internal/params"
)

func main() {
	addr := flag.String("addr", config.Default().Addr, "visualizer address")
	channel := flag.String("channel", config.ControlChannel, "control channel name")
	logLevel := flag.String("log-level", "disabled", "log level, logs go to stderr")
	flag.Parse()

	log := logging.Setup(*logLevel, false)

	url := fmt.Sprintf("ws://%s/ws/%s", *addr, *channel)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client, err := controlui.Dial(ctx, url, logging.Component("arcontrol"))
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	model := controlui.New(client, client.Acks(), params.Defaults())
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Error().Err(err).Msg("control surface failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
