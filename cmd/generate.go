package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/diagramdive/internal/deepdive"
	"github.com/ziadkadry99/diagramdive/internal/errview"
	"github.com/ziadkadry99/diagramdive/internal/lifecycle"
	"github.com/ziadkadry99/diagramdive/internal/progress"
	"github.com/ziadkadry99/diagramdive/internal/selection"
	"github.com/ziadkadry99/diagramdive/internal/session"
	"github.com/ziadkadry99/diagramdive/internal/visual"
)

var generateCmd = &cobra.Command{
	Use:   "generate <query>",
	Short: "Generate a diagram for a query and optionally ask about one element",
	Long: `Generates, renders and validates a diagram for the query, then prints its
Mermaid source and selectable elements. With --select and --ask a follow-up
question about one element is answered; --out saves the rendered SVG.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("select", "", "label of the node or edge label to select")
	generateCmd.Flags().String("ask", "", "follow-up question about the selected element (requires --select)")
	generateCmd.Flags().String("out", "", "write the rendered SVG to this file")
	generateCmd.Flags().Bool("source-only", false, "print only the Mermaid source")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	selectLabel, _ := cmd.Flags().GetString("select")
	question, _ := cmd.Flags().GetString("ask")
	outPath, _ := cmd.Flags().GetString("out")
	sourceOnly, _ := cmd.Flags().GetBool("source-only")
	if question != "" && selectLabel == "" {
		return fmt.Errorf("--ask needs --select to name the element the question is about")
	}

	svc, closeSvc, err := createService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	engines, err := createEngines(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating render engine: %w", err)
	}

	out := cmd.OutOrStdout()
	sess := session.New()
	pv := &printView{w: out}
	lv := progress.NewLifecycleView(progress.NewReporter(os.Stderr), os.Stderr)
	sel := selection.New(sess, pv, logger)
	gen := lifecycle.New(sess, svc, engines, sel, lv, logger)
	dd := deepdive.New(sess, svc, pv, logger)

	if err := gen.GenerateDiagram(ctx, query); err != nil {
		// The view has already explained the failure.
		return fmt.Errorf("generation failed: %w", err)
	}
	res := lv.Result

	if sourceOnly {
		fmt.Fprintln(out, res.Source)
	} else {
		printDiagram(out, res)
	}

	if outPath != "" {
		if err := writeSVG(outPath, res.Tree); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(out, "Saved SVG to %s\n", outPath)
	}

	if selectLabel == "" {
		return nil
	}
	target, ok := findTarget(res.Tree, selectLabel)
	if !ok {
		return fmt.Errorf("no element labelled %q in the diagram", selectLabel)
	}
	if err := sel.OnElementClicked(target.Element, target.Kind); err != nil {
		return err
	}

	if question == "" {
		return nil
	}
	if _, err := dd.AskAboutSelection(ctx, question); err != nil {
		if errors.Is(err, deepdive.ErrNothingToAsk) {
			return fmt.Errorf("--ask must not be blank")
		}
		return fmt.Errorf("deep dive failed: %w", err)
	}
	return nil
}

func printDiagram(w io.Writer, res lifecycle.Result) {
	header := color.New(color.Bold, color.FgCyan)

	header.Fprintln(w, "Mermaid source")
	header.Fprintln(w, "==============")
	fmt.Fprintln(w, res.Source)
	fmt.Fprintln(w)

	targets := selection.Targets(res.Tree)
	header.Fprintf(w, "Elements (%d)\n", len(targets))
	for _, t := range targets {
		kind := "node"
		if t.Kind == session.KindEdgeLabel {
			kind = "edge"
		}
		fmt.Fprintf(w, "  %-5s %s\n", kind, t.Text)
	}
}

// findTarget matches label against the diagram's elements after
// normalization, ignoring case.
func findTarget(tree *visual.Tree, label string) (selection.Target, bool) {
	want := selection.Normalize(label)
	for _, t := range selection.Targets(tree) {
		if strings.EqualFold(t.Text, want) {
			return t, true
		}
	}
	return selection.Target{}, false
}

func writeSVG(path string, tree *visual.Tree) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := tree.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// printView prints selection and deep-dive updates. It implements
// selection.View and deepdive.View.
type printView struct {
	w io.Writer
}

func (v *printView) Marked(el *visual.Element, kind session.Kind) {}

func (v *printView) Unmarked(el *visual.Element, kind session.Kind) {}

func (v *printView) ShowSelection(text string) {
	color.New(color.FgGreen).Fprintf(v.w, "\nSelected: %s\n", text)
}

func (v *printView) HideSelection() {}

func (v *printView) FocusQuestion() {}

func (v *printView) ClearQuestion() {}

func (v *printView) HideAnswer() {}

func (v *printView) ShowPending() {
	color.New(color.FgYellow).Fprintln(v.w, "Thinking...")
}

func (v *printView) ShowAnswer(ex deepdive.Exchange) {
	color.New(color.Bold, color.FgCyan).Fprintf(v.w, "\nDeep Dive: %s\n", ex.ContextText)
	color.New(color.Bold).Fprintf(v.w, "Q: %s\n\n", ex.Question)
	fmt.Fprintln(v.w, strings.TrimSpace(ex.Answer))
}

func (v *printView) ShowAnswerError(err error) {
	color.New(color.FgRed).Fprintln(v.w, errview.AnswerError(err))
}
