package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/assetcache"
	"github.com/tonybenoy/anuvad/pkg/audio"
	"github.com/tonybenoy/anuvad/pkg/audio/wavsource"
	"github.com/tonybenoy/anuvad/pkg/streambuf"
	"github.com/tonybenoy/anuvad/pkg/tensor/refengine"
	"github.com/tonybenoy/anuvad/pkg/translator"
	"github.com/tonybenoy/anuvad/pkg/whisperdriver"
)

var (
	simulateWAVPath        string
	simulateTargetLang     string
	simulateTranslatorGGUF string
	simulateNoTUI          bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a 16kHz mono WAV file through the transcription/translation pipeline",
	Long: `simulate drives pkg/audio/wavsource, pkg/streambuf, pkg/whisperdriver, and
(optionally) pkg/translator the same way the orchestrator drives a live
microphone capture, using the deterministic refengine tensor backend in
place of a real neural network. Its purpose is exercising the window/decode
control flow end to end without a browser.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateWAVPath, "wav", "", "path to a 16kHz mono WAV file (required)")
	simulateCmd.Flags().StringVar(&simulateTargetLang, "target-lang", "", "target language code to translate into; empty skips translation")
	simulateCmd.Flags().StringVar(&simulateTranslatorGGUF, "translator-gguf", "", "path to a cached translator .gguf file; required when --target-lang is set")
	simulateCmd.Flags().BoolVar(&simulateNoTUI, "no-tui", false, "print plain log lines instead of the terminal UI")
	_ = simulateCmd.MarkFlagRequired("wav")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulateTargetLang != "" && simulateTranslatorGGUF == "" {
		return errors.New("--translator-gguf is required when --target-lang is set")
	}

	cache, err := assetcache.NewDiskCache(config.Current.CacheDir)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	ctx := context.Background()
	tokenizerJSON, err := cache.Get(ctx, config.Current.WhisperURLs.TokenizerURL)
	if err != nil {
		return fmt.Errorf("fetch whisper tokenizer (run `anuvadctl fetch --model whisper` first): %w", err)
	}
	melFilters, err := cache.Get(ctx, config.Current.WhisperURLs.MelFiltersURL)
	if err != nil {
		return fmt.Errorf("fetch whisper mel filters: %w", err)
	}

	whisperEngine := refengine.New(refengine.Options{VocabSize: len(tokenizerJSON)%128 + 64, StopAfter: 48})
	placeholderWeights := []byte{0}
	driver, err := whisperdriver.Load(whisperEngine, placeholderWeights, placeholderWeights, tokenizerJSON, melFilters)
	if err != nil {
		return fmt.Errorf("load whisper driver: %w", err)
	}
	defer driver.Close()

	var translatorDriver *translator.Driver
	if simulateTranslatorGGUF != "" && simulateTargetLang != "" {
		ggufBytes, err := os.ReadFile(simulateTranslatorGGUF)
		if err != nil {
			return fmt.Errorf("read translator gguf: %w", err)
		}
		translatorTokenizer, err := cache.Get(ctx, config.Current.TranslatorURLs.TokenizerURL)
		if err != nil {
			return fmt.Errorf("fetch translator tokenizer: %w", err)
		}
		translatorEngine := refengine.New(refengine.Options{VocabSize: 512, StopAfter: 64})
		translatorDriver, err = translator.Load(translatorEngine, ggufBytes, translatorTokenizer)
		if err != nil {
			return fmt.Errorf("load translator driver: %w", err)
		}
		defer translatorDriver.Close()
	}

	source, err := wavsource.Open(simulateWAVPath)
	if err != nil {
		return fmt.Errorf("open wav: %w", err)
	}
	defer source.Close()

	if simulateNoTUI {
		return runSimulationPlain(ctx, source, driver, translatorDriver)
	}
	return runSimulationTUI(ctx, source, driver, translatorDriver)
}

func runSimulationPlain(ctx context.Context, source *wavsource.Source, driver *whisperdriver.Driver, td *translator.Driver) error {
	buffer := streambuf.New()
	for {
		block, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if block == nil {
			break
		}
		buffer.Push(block)
		if chunk := buffer.GetChunk(); chunk != nil {
			if err := transcribeAndTranslate(ctx, chunk, driver, td, func(line string) { fmt.Println(line) }); err != nil {
				return err
			}
		}
	}
	return nil
}

func transcribeAndTranslate(ctx context.Context, chunk []float32, driver *whisperdriver.Driver, td *translator.Driver, emit func(string)) error {
	result, err := driver.Transcribe(ctx, chunk)
	if err != nil {
		return err
	}
	if result.Text == "" {
		return nil
	}
	emit(fmt.Sprintf("[%s] %s", result.Language, result.Text))

	if td == nil {
		return nil
	}
	translated, err := td.Translate(ctx, simulateTargetLang, result.Text, func(fragment string) {})
	if err != nil {
		return err
	}
	emit(fmt.Sprintf("  -> [%s] %s", simulateTargetLang, translated))
	return nil
}

// simulateModel is the bubbletea model for `simulate`'s terminal UI, adapted
// from the live-capture terminal UI to a fixed-duration replay: a spinner
// while audio remains, a running transcript frame, and a translation frame.
type simulateModel struct {
	mu          sync.Mutex
	spinner     spinner.Model
	transcript  string
	translation string
	audioLevel  float32
	done        bool
	errMessage  string
	width       int
}

var (
	simAppStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61E3FA")).Padding(0, 1)
	simFrame    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7AA2F7")).Padding(0, 1)
	simError    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))
)

func newSimulateModel() *simulateModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ECE6A"))
	return &simulateModel{spinner: s, width: 80}
}

func (m *simulateModel) Init() tea.Cmd { return m.spinner.Tick }

type simTranscriptMsg struct{ text, language string }
type simTranslationMsg struct{ text string }
type simLevelMsg float32
type simDoneMsg struct{ err error }

func (m *simulateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case simTranscriptMsg:
		m.mu.Lock()
		m.transcript = fmt.Sprintf("[%s] %s", msg.language, msg.text)
		m.mu.Unlock()
	case simTranslationMsg:
		m.mu.Lock()
		m.translation = msg.text
		m.mu.Unlock()
	case simLevelMsg:
		m.mu.Lock()
		m.audioLevel = float32(msg)
		m.mu.Unlock()
	case simDoneMsg:
		m.mu.Lock()
		m.done = true
		if msg.err != nil {
			m.errMessage = msg.err.Error()
		}
		m.mu.Unlock()
		return m, tea.Quit
	}
	return m, nil
}

func (m *simulateModel) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	b.WriteString(simAppStyle.Render("anuvadctl simulate"))
	b.WriteString("\n\n")

	status := m.spinner.View() + " replaying"
	if m.done {
		status = "done"
	}
	b.WriteString(status + fmt.Sprintf("  level=%.2f\n\n", m.audioLevel))

	transcript := m.transcript
	if transcript == "" {
		transcript = "(waiting for first window...)"
	}
	b.WriteString(simFrame.Width(m.width - 4).Render("Transcript:\n" + transcript))

	if m.translation != "" {
		b.WriteString("\n\n")
		b.WriteString(simFrame.Width(m.width - 4).Render("Translation:\n" + m.translation))
	}

	if m.errMessage != "" {
		b.WriteString("\n\n" + simError.Render("Error: "+m.errMessage))
	}

	b.WriteString("\n\npress q to quit\n")
	return b.String()
}

func runSimulationTUI(ctx context.Context, source *wavsource.Source, driver *whisperdriver.Driver, td *translator.Driver) error {
	model := newSimulateModel()
	program := tea.NewProgram(model)

	go func() {
		buffer := streambuf.New()
		var finalErr error
		for {
			block, err := source.Next(ctx)
			if err != nil {
				finalErr = err
				break
			}
			if block == nil {
				break
			}
			buffer.Push(block)
			program.Send(simLevelMsg(audio.RMS(block)))

			if chunk := buffer.GetChunk(); chunk != nil {
				result, err := driver.Transcribe(ctx, chunk)
				if err != nil {
					finalErr = err
					break
				}
				if result.Text != "" {
					program.Send(simTranscriptMsg{text: result.Text, language: result.Language})
					if td != nil {
						translated, err := td.Translate(ctx, simulateTargetLang, result.Text, func(string) {})
						if err != nil {
							finalErr = err
							break
						}
						program.Send(simTranslationMsg{text: translated})
					}
				}
			}
			time.Sleep(10 * time.Millisecond)
		}
		program.Send(simDoneMsg{err: finalErr})
	}()

	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
