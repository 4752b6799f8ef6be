package main

import (
	"context"
	"fmt"
	"time"

	"valentine-server/internal/letter"
	"valentine-server/internal/submission"
	"valentine-server/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the letter in the terminal",
	RunE:  runPlay,
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, client, closer, err := loadClient()
	if err != nil {
		return err
	}
	defer closer.Close()

	policy, err := cfg.LetterConfig().Policy()
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	machine := letter.NewMachine(policy, letter.NewRandomOffsets(seed))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// program присваивается до Run, а диспетчер срабатывает только из Update
	var program *tea.Program
	dispatcher := submission.NewDispatcher(ctx, client, func(r submission.Result) {
		program.Send(tui.ResultMsg{Result: r})
	}, submission.WithSubmitTimeout(cfg.SubmitTimeout))

	program = tea.NewProgram(tui.New(machine, dispatcher.Dispatch), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		dispatcher.Close()
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	// ответ мог быть дан прямо перед выходом: даём сохранению завершиться
	dispatcher.Wait()
	return nil
}
