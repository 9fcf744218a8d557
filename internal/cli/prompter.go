package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/loanrecon/internal/engine"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
)

// ReviewStats counts the decisions made during an interactive review.
type ReviewStats struct {
	Duration          time.Duration
	Presented         int
	Edited            int
	AcceptedExtracted int
	KeptOriginal      int
	Skipped           int
}

// Prompter resolves variances interactively on a terminal.
type Prompter struct {
	startTime   time.Time
	writer      io.Writer
	reader      *LineReader
	progressBar *progressbar.ProgressBar
	stats       ReviewStats
	rounds      int
	mu          sync.Mutex
}

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader:    NewLineReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// ResolveVariances asks the reviewer about each pending variance:
// [E]dit, accept e[X]tracted, keep [O]riginal, [S]kip or [Q]uit.
// Quitting returns engine.ErrReviewAborted.
func (p *Prompter) ResolveVariances(ctx context.Context, session *reconcile.Session, pending []model.Variance) error {
	if len(pending) == 0 {
		return nil
	}

	p.rounds++
	if p.rounds > 1 {
		p.println(FormatWarning(fmt.Sprintf(
			"Finalizing is blocked by %d critical variance(s). Resolve them to continue, or Q to abort.",
			len(pending))))
	}

	p.initProgressBar(len(pending))
	defer p.finishProgressBar()

	for i, v := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := fmt.Fprintf(p.writer, "\n[%d/%d]\n", i+1, len(pending)); err != nil {
			slog.Warn("Failed to write progress", "error", err)
		}
		if err := p.resolveOne(ctx, session, v); err != nil {
			return err
		}
		p.updateProgress()
	}

	p.println("")
	p.println(SessionTable(session))
	p.println(SummaryLine(session.Summary()))
	return nil
}

func (p *Prompter) resolveOne(ctx context.Context, session *reconcile.Session, v model.Variance) error {
	rule, _ := session.Rule(v.Field)
	if _, err := fmt.Fprintln(p.writer, RenderBox(v.Label, p.formatVariance(v, rule))); err != nil {
		return fmt.Errorf("failed to write variance box: %w", err)
	}

	p.println(FormatPrompt("Options:"))
	p.println("  [E] Enter a corrected value")
	p.println(fmt.Sprintf("  [X] Accept extracted value: %s", SuccessStyle.Render(v.FormattedExtracted)))
	p.println(fmt.Sprintf("  [O] Keep original value: %s", BoldStyle.Render(v.FormattedApplication)))
	p.println("  [S] Skip for now")
	p.println("  [Q] Quit without saving")

	p.mu.Lock()
	p.stats.Presented++
	p.mu.Unlock()

	for {
		choice, err := p.promptChoice(ctx, "Choice [E/X/O/S/Q]", []string{"e", "x", "o", "s", "q"})
		if err != nil {
			return err
		}

		switch choice {
		case "e":
			return p.promptEdit(ctx, session, v)
		case "x":
			if err := session.Resolve(v.Field, reconcile.AcceptExtracted()); err != nil {
				return err
			}
			p.count(func(s *ReviewStats) { s.AcceptedExtracted++ })
			p.println(FormatSuccess("Using extracted value " + v.FormattedExtracted))
		case "o":
			if err := session.Resolve(v.Field, reconcile.AcceptOriginal()); err != nil {
				return err
			}
			p.count(func(s *ReviewStats) { s.KeptOriginal++ })
			p.println(FormatSuccess("Keeping original value " + v.FormattedApplication))
		case "s":
			p.count(func(s *ReviewStats) { s.Skipped++ })
			p.println(FormatWarning("Skipped " + v.Label))
		case "q":
			return engine.ErrReviewAborted
		}
		return nil
	}
}

func (p *Prompter) promptEdit(ctx context.Context, session *reconcile.Session, v model.Variance) error {
	hint := ""
	if v.ValueType.IsNumeric() {
		hint = " (number)"
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt("New value for "+v.Label+hint)); err != nil {
			return fmt.Errorf("failed to write value prompt: %w", err)
		}

		input, err := p.readLine(ctx)
		if err != nil {
			return err
		}
		if input == "" {
			p.println(FormatError("Value cannot be empty. Please try again."))
			continue
		}

		if err := session.Resolve(v.Field, reconcile.Edit(model.Text(input))); err != nil {
			if errors.Is(err, reconcile.ErrInvalidValue) {
				p.println(FormatError(fmt.Sprintf("%q is not a valid number. Please try again.", input)))
				continue
			}
			return err
		}

		p.count(func(s *ReviewStats) { s.Edited++ })
		res, _ := session.Resolution(v.Field)
		p.println(FormatSuccess("Updated " + v.Label + " to " + res.Value.Literal()))
		return nil
	}
}

func (p *Prompter) formatVariance(v model.Variance, rule model.Rule) string {
	details := fmt.Sprintf("  Application: %s\n", v.FormattedApplication) +
		fmt.Sprintf("  Extracted:   %s\n", v.FormattedExtracted) +
		fmt.Sprintf("  Difference:  %s\n", Difference(v)) +
		fmt.Sprintf("  Severity:    %s", SeverityBadge(v.Severity))

	if r := describeRule(v.ValueType, rule); r != "" {
		details += "\n" + SubtleStyle.Render("  Rule: "+r)
	}
	if rule.BlockProgress && v.Severity == model.SeverityCritical {
		details += "\n" + ErrorStyle.Render("  "+LockIcon+" Must be resolved before the review can be finalized")
	}
	return details
}

func describeRule(vt model.ValueType, rule model.Rule) string {
	if !vt.IsNumeric() {
		if rule.MismatchSeverity == "" {
			return ""
		}
		return "mismatch is " + string(rule.MismatchSeverity)
	}

	var parts []string
	if s := thresholdPair(vt, rule.WarningPercentage, rule.WarningAbsolute); s != "" {
		parts = append(parts, "warning at "+s)
	}
	if s := thresholdPair(vt, rule.CriticalPercentage, rule.CriticalAbsolute); s != "" {
		parts = append(parts, "critical at "+s)
	}
	return strings.Join(parts, "; ")
}

func thresholdPair(vt model.ValueType, pct, abs *float64) string {
	var parts []string
	if pct != nil {
		parts = append(parts, displayFormat.Percent(*pct))
	}
	if abs != nil {
		parts = append(parts, displayFormat.Magnitude(*abs, vt))
	}
	return strings.Join(parts, " or ")
}

// GetReviewStats returns statistics about the decisions made so far.
func (p *Prompter) GetReviewStats() ReviewStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.Duration = time.Since(p.startTime)
	return stats
}

// ShowCompletion displays the outcome of a finalized review.
func (p *Prompter) ShowCompletion(result *engine.Result) {
	if result == nil || result.Record == nil {
		return
	}

	stats := p.GetReviewStats()
	sum := result.Session.Summary()

	updated := "none"
	if !result.Record.Patch.IsEmpty() {
		updated = fmt.Sprintf("%d", stats.Edited+stats.AcceptedExtracted)
	}

	summary := fmt.Sprintf("%s Statistics:\n", ChartIcon) +
		fmt.Sprintf("  • Variances: %d (%d critical)\n", sum.Total, sum.Critical) +
		fmt.Sprintf("  • Edited: %d\n", stats.Edited) +
		fmt.Sprintf("  • Accepted extracted: %d\n", stats.AcceptedExtracted) +
		fmt.Sprintf("  • Kept original: %d\n", stats.KeptOriginal) +
		fmt.Sprintf("  • Fields updated: %s\n", updated) +
		fmt.Sprintf("  • Session: %s\n", result.Session.ID) +
		fmt.Sprintf("  • Time taken: %s", stats.Duration.Round(time.Second))

	p.println(RenderBox(fmt.Sprintf("Review Complete: loan %d", result.Loan.ID), summary))
}

func (p *Prompter) initProgressBar(total int) {
	p.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan][bold]Reviewing variances...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *Prompter) updateProgress() {
	if p.progressBar != nil {
		if err := p.progressBar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
}

func (p *Prompter) finishProgressBar() {
	if p.progressBar == nil {
		return
	}
	if err := p.progressBar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
	p.progressBar = nil
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprintf(p.writer, "%s: ", FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		p.println(FormatError("Invalid choice. Please try again."))
	}
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	input, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: input terminated", engine.ErrReviewAborted)
		}
		if errors.Is(err, ErrInputCancelled) {
			return "", ctx.Err()
		}
		return "", err
	}
	return input, nil
}

func (p *Prompter) count(fn func(*ReviewStats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.stats)
}

func (p *Prompter) println(s string) {
	if _, err := fmt.Fprintln(p.writer, s); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}

// Ensure Prompter implements the engine.Resolver interface.
var _ engine.Resolver = (*Prompter)(nil)
