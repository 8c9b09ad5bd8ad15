package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicemedia/go-voicemedia/internal/log"
	"github.com/voicemedia/go-voicemedia/pkg/convlog"
	"github.com/voicemedia/go-voicemedia/pkg/mediafeed"
	"github.com/voicemedia/go-voicemedia/pkg/search"
	"github.com/voicemedia/go-voicemedia/pkg/session"
	"github.com/voicemedia/go-voicemedia/pkg/speechio"
)

var assistFlags struct {
	noPush bool
	noTTS  bool
}

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Run the interactive voice assistant",
	Long: `Starts a voice search session against the agent backend. Without
speech hardware, utterances are read line by line from stdin and
narration is printed; real devices plug in through the same adapter.`,
	RunE: runAssist,
}

func init() {
	rootCmd.AddCommand(assistCmd)
	assistCmd.Flags().BoolVar(&assistFlags.noPush, "no-push", false, "do not open the media push channel")
	assistCmd.Flags().BoolVar(&assistFlags.noTTS, "no-tts", false, "disable narration")
}

func runAssist(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var syn speechio.Synthesizer
	if !assistFlags.noTTS {
		syn = speechio.NewConsoleSynthesizer(os.Stdout)
	}
	adapter := speechio.NewAdapter(
		speechio.NewConsoleRecognizer(os.Stdin),
		syn,
		speechio.WithLocale(cfg.Speech.Locale),
		speechio.WithRate(cfg.Speech.Rate),
	)
	defer adapter.Close()

	feedOpts := []mediafeed.Option{}
	if cfg.Agent.Reconnect {
		feedOpts = append(feedOpts, mediafeed.WithReconnect(cfg.Agent.ReconnectInterval))
	}
	feed := mediafeed.New(feedOpts...)
	feed.OnUpdate(func(items []mediafeed.Item) {
		fmt.Printf("―― 推荐视频 (%d) ――\n", len(items))
		for _, it := range items {
			fmt.Printf("  [%d] %s (%s · %s)\n", it.ID, it.Title, it.Duration, it.ViewCount)
		}
	})
	feed.OnError(func(err error) {
		log.Warn("media feed", "error", err)
	})

	if !assistFlags.noPush {
		if err := feed.OpenPushChannel(ctx, cfg.Agent.PushURL); err != nil {
			// The session works without the push channel; search
			// responses still update the list.
			log.Warn("push channel unavailable", "error", err)
		}
		defer feed.ClosePushChannel()
	}

	client := search.NewClient(cfg.Agent.BaseURL)

	sessCfg := session.DefaultConfig().
		WithLocale(cfg.Speech.Locale).
		WithRate(cfg.Speech.Rate).
		WithRequestTimeout(cfg.Session.RequestTimeout)
	sessCfg.Continuous = cfg.Speech.Continuous

	ctrl, err := session.New(adapter, client, convlog.New(), feed, sessCfg)
	if err != nil {
		return err
	}
	ctrl.OnTurn(func(turn convlog.Turn) {
		switch turn.Role {
		case convlog.RoleUser:
			fmt.Printf("🎤 %s\n", turn.Content)
		case convlog.RoleAssistant:
			fmt.Printf("🤖 %s\n", turn.Content)
		case convlog.RoleError:
			fmt.Printf("⚠️  %s\n", turn.Content)
		}
	})
	// Keep the mic open: whenever a cycle completes, listen again.
	ctrl.OnStateChange(func(s session.State) {
		log.Debug("session state", "state", s.String())
		if s == session.StateIdle {
			ctrl.ToggleCapture()
		}
	})

	errCh := make(chan error, 1)
	go func() { errCh <- ctrl.Run(ctx) }()

	fmt.Println("语音对话助手已就绪，输入文字代替语音，Ctrl+C 退出。")
	if err := ctrl.ToggleCapture(); err != nil {
		return err
	}

	err = <-errCh
	if err == context.Canceled {
		return nil
	}
	return err
}
