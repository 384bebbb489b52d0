package viz

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/aerosim/internal/storage"
)

const (
	stateList = iota
	stateDetail
)

// Browser is a bubbletea model listing the descriptors of a catalog.
type Browser struct {
	catalog storage.Catalog
	records []storage.Record

	state, cursor int
	detail        string
	width, height int
	plot          PlotOptions
}

func NewBrowser(c storage.Catalog, plot PlotOptions) (*Browser, error) {
	recs, err := c.List()
	if err != nil {
		return nil, err
	}
	return &Browser{catalog: c, records: recs, plot: plot, width: 80, height: 24}, nil
}

func (b *Browser) Init() tea.Cmd { return nil }

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
	}
	return b, nil
}

func (b *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return b, tea.Quit
	}

	if b.state == stateDetail {
		switch msg.String() {
		case "q", "esc", "backspace":
			b.state, b.detail = stateList, ""
		}
		return b, nil
	}

	switch msg.String() {
	case "q":
		return b, tea.Quit
	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}
	case "down", "j":
		if b.cursor < len(b.records)-1 {
			b.cursor++
		}
	case "enter", " ":
		if len(b.records) > 0 {
			b.detail = b.renderDetail(b.records[b.cursor])
			b.state = stateDetail
		}
	}
	return b, nil
}

func (b *Browser) renderDetail(rec storage.Record) string {
	var sb strings.Builder
	sb.WriteString(Title.Render(rec.Name) + " " + Subtle.Render(string(rec.Kind)+"  "+rec.ID) + "\n\n")
	if rec.Source != "" {
		sb.WriteString(Row("source", rec.Source) + "\n")
	}
	if rec.NumConc > 0 {
		sb.WriteString(Row("num_conc", fmt.Sprintf("%g #/m^3", rec.NumConc)) + "\n")
	}

	v, err := rec.Value()
	if err != nil {
		sb.WriteString(StatusError.Render("params: "+err.Error()) + "\n")
	} else {
		sb.WriteString(Panel.Render(v.String()) + "\n")
	}

	bins, err := b.catalog.LoadBins(rec.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		sb.WriteString(StatusError.Render("bins: "+err.Error()) + "\n")
	case len(bins.NumConc) > 0:
		caption := fmt.Sprintf("num_conc per bin, r: %.3g .. %.3g m", bins.Radius[0], bins.Radius[len(bins.Radius)-1])
		sb.WriteString("\n" + PlotSeries(bins.NumConc, caption, b.plot) + "\n")
	}
	return sb.String()
}

func (b *Browser) View() string {
	if b.state == stateDetail {
		return "\n" + b.detail + "\n" + KeyHint.Render("esc back  ctrl+c quit") + "\n"
	}

	var sb strings.Builder
	sb.WriteString("\n  " + Title.Render("AEROSIM") + "\n  " + Subtle.Render("saved descriptors") + "\n  " + Separator(30) + "\n\n")
	if len(b.records) == 0 {
		sb.WriteString("  " + Subtle.Render("no saved descriptors") + "\n")
	}
	for i, r := range b.records {
		line := fmt.Sprintf("%-9s %-16s %.4g", r.Kind, r.Name, r.NumConc)
		if i == b.cursor {
			sb.WriteString("  " + Selected.Render("▸ "+line) + "\n")
		} else {
			sb.WriteString("    " + Subtle.Render(line) + "\n")
		}
	}
	sb.WriteString("\n  " + KeyHint.Render("j/k navigate  enter open  q quit") + "\n")
	return sb.String()
}

// Current returns the record under the cursor.
func (b *Browser) Current() (storage.Record, bool) {
	if len(b.records) == 0 {
		return storage.Record{}, false
	}
	return b.records[b.cursor], true
}

func RunBrowser(c storage.Catalog, plot PlotOptions) error {
	b, err := NewBrowser(c, plot)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(b, tea.WithAltScreen()).Run()
	return err
}
