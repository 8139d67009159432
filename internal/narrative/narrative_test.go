package narrative

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/markup"
	"github.com/carbonreport/carbonreport/internal/model"
	apperrors "github.com/carbonreport/carbonreport/pkg/errors"
)

func sampleDetails() model.CategoryBreakdown {
	return model.CategoryBreakdown{
		{Key: "transporte", Value: 30},
		{Key: "energia_eletrica", Value: 10},
		{Key: "gas_cozinha", Value: 5},
	}
}

func TestNewFacts(t *testing.T) {
	f := NewFacts(sampleDetails(), 45, chart.DefaultLabels())

	assert.Equal(t, 540.0, f.Annual)
	assert.InDelta(t, 0.54, f.AnnualTonnes, 1e-9)
	assert.Equal(t, 24, f.Trees, "narrative tree count truncates 24.5")
	assert.InDelta(t, 21.6, f.CostMin, 1e-9)
	assert.InDelta(t, 32.4, f.CostMax, 1e-9)
	assert.Equal(t, "Transporte", f.Largest.Label)
	require.Len(t, f.Breakdown, 3)
	assert.InDelta(t, 66.666, f.Breakdown[0].Percent, 0.01)
}

func TestBreakdown_CanonicalOrderAndExtras(t *testing.T) {
	details := model.CategoryBreakdown{
		{Key: "aviao", Value: 8},
		{Key: "gas_cozinha", Value: 2},
	}
	shares := Breakdown(details, 10, chart.DefaultLabels())

	keys := make([]string, len(shares))
	for i, s := range shares {
		keys[i] = s.Key
	}
	assert.Equal(t, []string{"transporte", "energia_eletrica", "gas_cozinha", "aviao"}, keys)
	assert.Equal(t, 0.0, shares[0].Value)
	assert.Equal(t, "aviao", shares[3].Label)
	assert.Equal(t, "aviao", Largest(shares).Key)
}

func TestLargest_TieKeepsFirst(t *testing.T) {
	shares := []Share{{Key: "a", Value: 1}, {Key: "b", Value: 1}}
	assert.Equal(t, "a", Largest(shares).Key)
	assert.Equal(t, Share{}, Largest(nil))
}

func TestFallback(t *testing.T) {
	text := Fallback(NewFacts(sampleDetails(), 45, chart.DefaultLabels()))

	for _, want := range []string{
		"## 🌱 Seu Relatório de Pegada de Carbono",
		"**Mensal:** 45.00 kg CO2e  \n**Anual:** 540.00 kg CO2e (0.54 toneladas)",
		"- **Transporte:** 30.00 kg CO2e (66.7%)\n- **Energia Elétrica:** 10.00 kg CO2e (22.2%)\n- **Gás de Cozinha:** 5.00 kg CO2e (11.1%)\n\n### 🌳 Compensação",
		"**Árvores necessárias:** 24 árvores/ano",
		"**Anual:** R$ 21.60 a R$ 32.40",
		"[sosma.org.br](https://www.sosma.org.br)",
	} {
		assert.Contains(t, text, want)
	}
	assert.True(t, strings.HasSuffix(text, "Cada ação conta! Reduza primeiro, depois compense. 💚"))
}

func TestFallback_ZeroTotal(t *testing.T) {
	text := Fallback(NewFacts(nil, 0, chart.DefaultLabels()))

	assert.NotContains(t, text, "NaN")
	assert.NotContains(t, text, "Inf")
	assert.Contains(t, text, "- **Transporte:** 0.00 kg CO2e (0.0%)")
	assert.Contains(t, text, "**Árvores necessárias:** 0 árvores/ano")
	assert.Contains(t, text, "**Mensal:** 0.00 kg CO2e")
	assert.NotContains(t, text, "**Mensal:** 1.00")
}

func TestFallback_Formats(t *testing.T) {
	html, err := markup.Format(Fallback(NewFacts(sampleDetails(), 45, chart.DefaultLabels())))
	require.NoError(t, err)

	assert.Contains(t, html, "<h2>🌱 Seu Relatório de Pegada de Carbono</h2>")
	assert.Contains(t, html, "<strong>Transporte:</strong>")
	assert.Contains(t, html, `<a href="https://moss.earth" target="_blank" rel="noopener noreferrer">moss.earth</a>`)
	assert.Contains(t, html, "<ol>")
}

func TestContextLines(t *testing.T) {
	lines := ContextLines(model.JSONMap{
		"km_carro":         500.0,
		"tipo_combustivel": "etanol",
		"km_onibus":        0.0,
		"kwh_eletricidade": 150.0,
		"kg_gas_glp":       6.5,
	})
	assert.Equal(t, []string{
		"Carro: 500 km/mês (etanol)",
		"Energia: 150 kWh/mês",
		"Gás: 0.5 botijão(ões)/mês",
	}, lines)

	assert.Equal(t, []string{"Carro: 12 km/mês (combustível)"}, ContextLines(model.JSONMap{"km_carro": 12}))
	assert.Nil(t, ContextLines(nil))
}

func TestPrompt(t *testing.T) {
	f := NewFacts(sampleDetails(), 45, chart.DefaultLabels()).
		WithInputs(model.JSONMap{"kwh_eletricidade": 150.0})
	prompt := Prompt(f)

	assert.Contains(t, prompt, "Total mensal: 45.00 kg CO2e")
	assert.Contains(t, prompt, "\n- Energia: 150 kWh/mês")
	assert.Contains(t, prompt, "- Transporte: 30.00 kg CO2e (66.7%)")
	assert.Contains(t, prompt, "Categoria de maior impacto: Transporte (30.00 kg CO2e)")
	assert.Contains(t, prompt, "**Compensação Mensal:** R$ 1.80 a R$ 2.70")
	assert.Contains(t, prompt, "#### Organizações Parceiras")
}

type fakeWriter struct {
	available bool
	fails     int
	calls     int
	prompts   []string
	text      string
}

func (w *fakeWriter) Name() string    { return "fake" }
func (w *fakeWriter) Available() bool { return w.available }

func (w *fakeWriter) Write(_ context.Context, prompt string) (string, error) {
	w.calls++
	w.prompts = append(w.prompts, prompt)
	if w.calls <= w.fails {
		return "", errors.New("quota exceeded")
	}
	return w.text, nil
}

func fastConfig(retries int) WriterConfig {
	return WriterConfig{MaxRetries: retries, RetryDelay: time.Millisecond}
}

func TestComposer_Generated(t *testing.T) {
	w := &fakeWriter{available: true, fails: 1, text: "## Olá"}
	c := NewComposer(w, fastConfig(2), nil, nil)

	res := c.Compose(context.Background(), Request{Details: sampleDetails(), Total: 45})

	assert.Equal(t, model.NarrativeGenerated, res.Source)
	assert.Equal(t, "## Olá", res.Text)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 2, w.calls)
	assert.Contains(t, w.prompts[0], "Total mensal: 45.00 kg CO2e")
}

func TestComposer_FallbackAfterRetries(t *testing.T) {
	w := &fakeWriter{available: true, fails: 5}
	c := NewComposer(w, fastConfig(2), nil, nil)

	res := c.Compose(context.Background(), Request{Details: sampleDetails(), Total: 45})

	assert.Equal(t, model.NarrativeFallback, res.Source)
	assert.Equal(t, 2, w.calls)
	assert.Equal(t, 2, res.Attempts)
	assert.EqualError(t, res.Err, "quota exceeded")
	assert.Contains(t, res.Text, "**Árvores necessárias:** 24 árvores/ano")
}

func TestComposer_NoWriter(t *testing.T) {
	res := NewComposer(nil, WriterConfig{}, nil, nil).Compose(context.Background(), Request{Total: 10})
	assert.Equal(t, model.NarrativeFallback, res.Source)
	assert.Zero(t, res.Attempts)
	assert.NotEmpty(t, res.Text)
}

func TestComposer_UnavailableWriter(t *testing.T) {
	w := &fakeWriter{available: false}
	res := NewComposer(w, fastConfig(3), nil, nil).Compose(context.Background(), Request{Total: 10})
	assert.Equal(t, model.NarrativeFallback, res.Source)
	assert.Zero(t, w.calls)
}

func TestComposer_CancelledContextStopsRetrying(t *testing.T) {
	w := &fakeWriter{available: true, fails: 10}
	c := NewComposer(w, WriterConfig{MaxRetries: 5, RetryDelay: time.Hour}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := c.Compose(ctx, Request{Total: 10})

	assert.Equal(t, model.NarrativeFallback, res.Source)
	assert.Equal(t, 1, w.calls)
}

func TestWriterConfig_WithDefaults(t *testing.T) {
	cfg := WriterConfig{}.WithDefaults()
	assert.Equal(t, DefaultCommand, cfg.Command)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "writer.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCLIWriter_EchoesStdin(t *testing.T) {
	w := NewCLIWriter(WriterConfig{Command: writeScript(t, "cat"), Timeout: 5 * time.Second})
	require.True(t, w.Available())

	text, err := w.Write(context.Background(), "  ## Relatório\n")
	require.NoError(t, err)
	assert.Equal(t, "## Relatório", text)
}

func TestCLIWriter_Failure(t *testing.T) {
	w := NewCLIWriter(WriterConfig{Command: writeScript(t, "echo boom >&2\nexit 3"), Timeout: 5 * time.Second})

	_, err := w.Write(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWriterExecution))
	assert.Contains(t, err.Error(), "boom")
}

func TestCLIWriter_EmptyOutput(t *testing.T) {
	w := NewCLIWriter(WriterConfig{Command: writeScript(t, "cat >/dev/null"), Timeout: 5 * time.Second})

	_, err := w.Write(context.Background(), "prompt")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNarrativeEmpty))
}

func TestCLIWriter_Timeout(t *testing.T) {
	w := NewCLIWriter(WriterConfig{Command: writeScript(t, "exec sleep 5"), Timeout: 100 * time.Millisecond})

	_, err := w.Write(context.Background(), "prompt")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWriterTimeout))
}

func TestCLIWriter_MissingCommand(t *testing.T) {
	w := NewCLIWriter(WriterConfig{Command: "carbonreport-no-such-writer"})
	assert.False(t, w.Available())

	_, err := w.Write(context.Background(), "prompt")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWriterUnavailable))
}
