package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/username/timeviz/internal/table"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Panel geometry. Panels sit side by side in a single row, so the image is
// panelWidth times the panel count wide.
const (
	panelWidth  = 500
	panelHeight = 400

	marginTop    = 48
	marginRight  = 24
	marginBottom = 56
	marginLeft   = 64

	plotLeft   = marginLeft
	plotRight  = panelWidth - marginRight
	plotTop    = marginTop
	plotBottom = panelHeight - marginBottom
	plotW      = plotRight - plotLeft
	plotH      = plotBottom - plotTop
)

// Theme holds the colors and text styling used by the renderer.
type Theme struct {
	Background string
	Series     string
	Grid       string
	Axis       string
	Text       string
	Palette    []string
	FontFamily string
	FontSize   int
	TitleSize  int
}

// DefaultTheme returns the standard chart styling.
func DefaultTheme() Theme {
	return Theme{
		Background: "#ffffff",
		Series:     "#1f77b4",
		Grid:       "#e5e5e5",
		Axis:       "#333333",
		Text:       "#333333",
		Palette: []string{
			"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
			"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
		},
		FontFamily: "Helvetica, Arial, sans-serif",
		FontSize:   11,
		TitleSize:  14,
	}
}

// Renderer draws count distributions as a single-row multi-panel SVG image.
type Renderer struct {
	theme  Theme
	logger *zap.Logger
}

// NewRenderer creates a renderer using the given theme.
func NewRenderer(theme Theme, logger *zap.Logger) *Renderer {
	return &Renderer{theme: theme, logger: logger}
}

// Render validates the requested panels against the table and draws one
// chart per panel, side by side. Validation failures abort before any panel
// is drawn.
func (r *Renderer) Render(d table.Derived, panels []Panel) ([]byte, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("no panels to render")
	}
	if err := validatePanels(d, panels); err != nil {
		return nil, err
	}

	r.logger.Info("Rendering chart",
		zap.Int("panels", len(panels)),
		zap.Int("rows", d.Len()))

	// Panels are independent, so each one is drawn on its own goroutine and
	// assembled in panel order afterwards.
	bodies := make([]string, len(panels))
	var g errgroup.Group
	for i := range panels {
		i := i
		g.Go(func() error {
			p := panels[i]
			vals, _ := d.Column(p.Category)
			body, err := r.renderPanel(Kind(p.Kind), p, CountValues(vals))
			if err != nil {
				return fmt.Errorf("failed to render panel %d (%s): %w", i, p.Category, err)
			}
			bodies[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalWidth := panelWidth * len(panels)
	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		totalWidth, panelHeight, totalWidth, panelHeight)
	fmt.Fprintf(&b, "<rect width=\"%d\" height=\"%d\" fill=\"%s\"/>\n",
		totalWidth, panelHeight, r.theme.Background)
	for i, body := range bodies {
		fmt.Fprintf(&b, "<g transform=\"translate(%d,0)\">\n", i*panelWidth)
		b.WriteString(body)
		b.WriteString("</g>\n")
	}
	b.WriteString("</svg>\n")

	return []byte(b.String()), nil
}

// validatePanels checks every category and kind up front so a single bad
// panel fails the whole request.
func validatePanels(d table.Derived, panels []Panel) error {
	available := make(map[string]bool)
	for _, name := range d.Columns() {
		available[name] = true
	}

	var missing []string
	seenMissing := make(map[string]bool)
	for _, p := range panels {
		if !available[p.Category] && !seenMissing[p.Category] {
			seenMissing[p.Category] = true
			missing = append(missing, p.Category)
		}
	}
	if len(missing) > 0 {
		return &table.MissingColumnError{Columns: missing}
	}

	var invalid []string
	seenInvalid := make(map[string]bool)
	for _, p := range panels {
		if _, err := ParseKind(p.Kind); err != nil && !seenInvalid[p.Kind] {
			seenInvalid[p.Kind] = true
			invalid = append(invalid, p.Kind)
		}
	}
	if len(invalid) > 0 {
		return &InvalidKindError{Kinds: invalid}
	}

	return nil
}

func (r *Renderer) renderPanel(k Kind, p Panel, counts []ValueCount) (string, error) {
	var b strings.Builder

	title := p.Title
	if title == "" {
		title = p.Category
	}
	fmt.Fprintf(&b, "<text x=\"%d\" y=\"%d\" text-anchor=\"middle\" font-family=\"%s\" font-size=\"%d\" fill=\"%s\">%s</text>\n",
		panelWidth/2, marginTop-18, r.theme.FontFamily, r.theme.TitleSize, r.theme.Text, escape(title))

	switch k {
	case KindBar:
		r.drawBar(&b, counts)
	case KindBarh:
		r.drawBarh(&b, counts)
	case KindLine:
		r.drawLine(&b, counts, false)
	case KindArea:
		r.drawLine(&b, counts, true)
	case KindPie:
		r.drawPie(&b, counts)
	case KindHist:
		r.drawHist(&b, counts)
	case KindBox:
		r.drawBox(&b, counts)
	case KindKDE, KindDensity:
		r.drawKDE(&b, counts)
	case KindScatter:
		r.drawScatter(&b, counts)
	case KindHexbin:
		r.drawHexbin(&b, counts)
	default:
		return "", &InvalidKindError{Kinds: []string{string(k)}}
	}

	return b.String(), nil
}

// drawAxes draws the x and y axis lines.
func (r *Renderer) drawAxes(b *strings.Builder) {
	fmt.Fprintf(b, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"%s\"/>\n",
		plotLeft, plotBottom, plotRight, plotBottom, r.theme.Axis)
	fmt.Fprintf(b, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"%s\"/>\n",
		plotLeft, plotTop, plotLeft, plotBottom, r.theme.Axis)
}

// drawFrame draws the axes plus horizontal gridlines and tick labels for a
// vertical value scale running 0..yMax.
func (r *Renderer) drawFrame(b *strings.Builder, yMax float64) {
	if yMax <= 0 {
		yMax = 1
	}
	r.drawAxes(b)

	for i := 0; i <= 4; i++ {
		v := yMax * float64(i) / 4
		y := float64(plotBottom) - v/yMax*float64(plotH)
		if i > 0 {
			fmt.Fprintf(b, "<line x1=\"%d\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\" stroke=\"%s\"/>\n",
				plotLeft, y, plotRight, y, r.theme.Grid)
		}
		fmt.Fprintf(b, "<text x=\"%d\" y=\"%.1f\" text-anchor=\"end\" font-family=\"%s\" font-size=\"%d\" fill=\"%s\">%s</text>\n",
			plotLeft-6, y+4, r.theme.FontFamily, r.theme.FontSize, r.theme.Text, formatTick(v))
	}
}

// drawXLabel writes a category label centered under the x axis.
func (r *Renderer) drawXLabel(b *strings.Builder, x float64, label string) {
	fmt.Fprintf(b, "<text x=\"%.1f\" y=\"%d\" text-anchor=\"middle\" font-family=\"%s\" font-size=\"%d\" fill=\"%s\">%s</text>\n",
		x, plotBottom+16, r.theme.FontFamily, r.theme.FontSize, r.theme.Text, escape(label))
}

func (r *Renderer) drawBar(b *strings.Builder, counts []ValueCount) {
	yMax := valueScale(counts)
	r.drawFrame(b, yMax)
	if len(counts) == 0 {
		return
	}

	slot := float64(plotW) / float64(len(counts))
	barW := slot * 0.8
	for i, vc := range counts {
		h := float64(vc.Count) / yMax * float64(plotH)
		x := float64(plotLeft) + float64(i)*slot + (slot-barW)/2
		y := float64(plotBottom) - h
		fmt.Fprintf(b, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"%s\"/>\n",
			x, y, barW, h, r.theme.Series)
		r.drawXLabel(b, x+barW/2, vc.Value)
	}
}

func (r *Renderer) drawBarh(b *strings.Builder, counts []ValueCount) {
	xMax := valueScale(counts)
	r.drawAxes(b)

	// Value ticks run along the x axis for horizontal bars.
	for i := 0; i <= 4; i++ {
		v := xMax * float64(i) / 4
		x := float64(plotLeft) + v/xMax*float64(plotW)
		if i > 0 {
			fmt.Fprintf(b, "<line x1=\"%.1f\" y1=\"%d\" x2=\"%.1f\" y2=\"%d\" stroke=\"%s\"/>\n",
				x, plotTop, x, plotBottom, r.theme.Grid)
		}
		r.drawXLabel(b, x, formatTick(v))
	}
	if len(counts) == 0 {
		return
	}

	slot := float64(plotH) / float64(len(counts))
	barH := slot * 0.8
	for i, vc := range counts {
		w := float64(vc.Count) / xMax * float64(plotW)
		y := float64(plotTop) + float64(i)*slot + (slot-barH)/2
		fmt.Fprintf(b, "<rect x=\"%d\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"%s\"/>\n",
			plotLeft, y, w, barH, r.theme.Series)
		fmt.Fprintf(b, "<text x=\"%d\" y=\"%.1f\" text-anchor=\"end\" font-family=\"%s\" font-size=\"%d\" fill=\"%s\">%s</text>\n",
			plotLeft-6, y+barH/2+4, r.theme.FontFamily, r.theme.FontSize, r.theme.Text, escape(vc.Value))
	}
}

func (r *Renderer) drawLine(b *strings.Builder, counts []ValueCount, filled bool) {
	yMax := valueScale(counts)
	r.drawFrame(b, yMax)
	if len(counts) == 0 {
		return
	}

	slot := float64(plotW) / float64(len(counts))
	points := make([]string, len(counts))
	for i, vc := range counts {
		x := float64(plotLeft) + (float64(i)+0.5)*slot
		y := float64(plotBottom) - float64(vc.Count)/yMax*float64(plotH)
		points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
		r.drawXLabel(b, x, vc.Value)
	}

	if filled {
		first := fmt.Sprintf("%.1f,%d", float64(plotLeft)+0.5*slot, plotBottom)
		last := fmt.Sprintf("%.1f,%d", float64(plotLeft)+(float64(len(counts))-0.5)*slot, plotBottom)
		fmt.Fprintf(b, "<polygon points=\"%s %s %s\" fill=\"%s\" fill-opacity=\"0.4\" stroke=\"%s\"/>\n",
			first, strings.Join(points, " "), last, r.theme.Series, r.theme.Series)
		return
	}

	fmt.Fprintf(b, "<polyline points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\"/>\n",
		strings.Join(points, " "), r.theme.Series)
}

func (r *Renderer) drawPie(b *strings.Builder, counts []ValueCount) {
	total := 0
	for _, vc := range counts {
		total += vc.Count
	}
	if total == 0 {
		return
	}

	cx := float64(panelWidth) / 2
	cy := float64(plotTop) + float64(plotH)/2
	radius := math.Min(float64(plotW), float64(plotH))/2 - 8

	if len(counts) == 1 {
		// A single slice is the full disc; an arc with coincident endpoints
		// would collapse to nothing.
		fmt.Fprintf(b, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n",
			cx, cy, radius, r.theme.Palette[0])
		fmt.Fprintf(b, "<text x=\"%.1f\" y=\"%.1f\" text-anchor=\"middle\" font-family=\"%s\" font-size=\"%d\" fill=\"%s\">%s</text>\n",
			cx, cy-radius-8, r.theme.FontFamily, r.theme.FontSize, r.theme.Text, escape(counts[0].Value))
		return
	}

	// Slices start at 3 o'clock and advance counterclockwise.
	angle := 0.0
	for i, vc := range counts {
		frac := float64(vc.Count) / float64(total)
		start := angle
		end := angle + frac*2*math.Pi
		angle = end

		x1 := cx + radius*math.Cos(start)
		y1 := cy - radius*math.Sin(start)
		x2 := cx + radius*math.Cos(end)
		y2 := cy - radius*math.Sin(end)

		largeArc := 0
		if end-start > math.Pi {
			largeArc = 1
		}

		color := r.theme.Palette[i%len(r.theme.Palette)]
		fmt.Fprintf(b, "<path d=\"M%.1f,%.1f L%.1f,%.1f A%.1f,%.1f 0 %d 0 %.1f,%.1f Z\" fill=\"%s\"/>\n",
			cx, cy, x1, y1, radius, radius, largeArc, x2, y2, color)

		mid := (start + end) / 2
		lx := cx + (radius+14)*math.Cos(mid)
		ly := cy - (radius+14)*math.Sin(mid)
		anchor := "start"
		if math.Cos(mid) < -0.1 {
			anchor = "end"
		} else if math.Cos(mid) <= 0.1 {
			anchor = "middle"
		}
		fmt.Fprintf(b, "<text x=\"%.1f\" y=\"%.1f\" text-anchor=\"%s\" font-family=\"%s\" font-size=\"%d\" fill=\"%s\">%s</text>\n",
			lx, ly+4, anchor, r.theme.FontFamily, r.theme.FontSize, r.theme.Text, escape(vc.Value))
	}
}

// drawHist draws a 10-bin histogram of the count values themselves.
func (r *Renderer) drawHist(b *strings.Builder, counts []ValueCount) {
	if len(counts) == 0 {
		r.drawFrame(b, 1)
		return
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vc := range counts {
		v := float64(vc.Count)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		// Flat samples get a half-unit range on each side.
		lo -= 0.5
		hi += 0.5
	}

	const bins = 10
	freq := make([]int, bins)
	binWidth := (hi - lo) / bins
	for _, vc := range counts {
		idx := int((float64(vc.Count) - lo) / binWidth)
		if idx >= bins {
			idx = bins - 1
		}
		freq[idx]++
	}

	yMax := 0
	for _, f := range freq {
		if f > yMax {
			yMax = f
		}
	}
	r.drawFrame(b, float64(yMax))

	slot := float64(plotW) / bins
	for i, f := range freq {
		if f == 0 {
			continue
		}
		h := float64(f) / float64(yMax) * float64(plotH)
		x := float64(plotLeft) + float64(i)*slot
		fmt.Fprintf(b, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"%s\" stroke=\"%s\"/>\n",
			x, float64(plotBottom)-h, slot, h, r.theme.Series, r.theme.Background)
	}

	for i := 0; i <= 2; i++ {
		v := lo + (hi-lo)*float64(i)/2
		x := float64(plotLeft) + float64(plotW)*float64(i)/2
		r.drawXLabel(b, x, formatTick(v))
	}
}

// drawBox draws a box-and-whisker summary of the count values with 1.5 IQR
// whiskers and outliers as open circles.
func (r *Renderer) drawBox(b *strings.Builder, counts []ValueCount) {
	if len(counts) == 0 {
		r.drawFrame(b, 1)
		return
	}

	sample := make([]float64, len(counts))
	for i, vc := range counts {
		sample[i] = float64(vc.Count)
	}
	sort.Float64s(sample)

	q1 := quantile(sample, 0.25)
	med := quantile(sample, 0.5)
	q3 := quantile(sample, 0.75)
	iqr := q3 - q1
	loFence := q1 - 1.5*iqr
	hiFence := q3 + 1.5*iqr

	whiskLo, whiskHi := q1, q3
	var fliers []float64
	for _, v := range sample {
		if v < loFence || v > hiFence {
			fliers = append(fliers, v)
			continue
		}
		if v < whiskLo {
			whiskLo = v
		}
		if v > whiskHi {
			whiskHi = v
		}
	}

	yMax := sample[len(sample)-1]
	r.drawFrame(b, yMax)
	yOf := func(v float64) float64 {
		return float64(plotBottom) - v/yMax*float64(plotH)
	}

	cx := float64(plotLeft) + float64(plotW)/2
	boxW := float64(plotW) * 0.3
	capW := boxW / 2

	fmt.Fprintf(b, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\"/>\n",
		cx, yOf(whiskHi), cx, yOf(q3), r.theme.Series)
	fmt.Fprintf(b, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\"/>\n",
		cx, yOf(q1), cx, yOf(whiskLo), r.theme.Series)
	fmt.Fprintf(b, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\"/>\n",
		cx-capW/2, yOf(whiskHi), cx+capW/2, yOf(whiskHi), r.theme.Series)
	fmt.Fprintf(b, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\"/>\n",
		cx-capW/2, yOf(whiskLo), cx+capW/2, yOf(whiskLo), r.theme.Series)

	fmt.Fprintf(b, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"none\" stroke=\"%s\"/>\n",
		cx-boxW/2, yOf(q3), boxW, yOf(q1)-yOf(q3), r.theme.Series)
	fmt.Fprintf(b, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\" stroke-width=\"2\"/>\n",
		cx-boxW/2, yOf(med), cx+boxW/2, yOf(med), r.theme.Palette[1])

	for _, v := range fliers {
		fmt.Fprintf(b, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"none\" stroke=\"%s\"/>\n",
			cx, yOf(v), r.theme.Series)
	}
}

// drawKDE draws a gaussian kernel density estimate of the count values using
// Scott's bandwidth rule.
func (r *Renderer) drawKDE(b *strings.Builder, counts []ValueCount) {
	if len(counts) == 0 {
		r.drawFrame(b, 1)
		return
	}

	sample := make([]float64, len(counts))
	mean := 0.0
	for i, vc := range counts {
		sample[i] = float64(vc.Count)
		mean += sample[i]
	}
	n := float64(len(sample))
	mean /= n

	variance := 0.0
	for _, v := range sample {
		variance += (v - mean) * (v - mean)
	}
	variance /= n
	sigma := math.Sqrt(variance)

	// Flat samples have zero spread and would collapse the bandwidth.
	bw := sigma * math.Pow(n, -0.2)
	if bw <= 0 {
		bw = 1
	}

	lo := sample[0]
	hi := sample[0]
	for _, v := range sample {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo -= 3 * bw
	hi += 3 * bw

	const steps = 120
	dens := make([]float64, steps+1)
	dMax := 0.0
	for i := 0; i <= steps; i++ {
		x := lo + (hi-lo)*float64(i)/steps
		sum := 0.0
		for _, v := range sample {
			z := (x - v) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		dens[i] = sum / (n * bw * math.Sqrt(2*math.Pi))
		if dens[i] > dMax {
			dMax = dens[i]
		}
	}

	r.drawFrame(b, dMax)

	points := make([]string, steps+1)
	for i, d := range dens {
		x := float64(plotLeft) + float64(plotW)*float64(i)/steps
		y := float64(plotBottom) - d/dMax*float64(plotH)
		points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
	}
	fmt.Fprintf(b, "<polyline points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\"/>\n",
		strings.Join(points, " "), r.theme.Series)

	for i := 0; i <= 2; i++ {
		v := lo + (hi-lo)*float64(i)/2
		x := float64(plotLeft) + float64(plotW)*float64(i)/2
		r.drawXLabel(b, x, formatTick(v))
	}
}

func (r *Renderer) drawScatter(b *strings.Builder, counts []ValueCount) {
	yMax := valueScale(counts)
	r.drawFrame(b, yMax)
	if len(counts) == 0 {
		return
	}

	slot := float64(plotW) / float64(len(counts))
	for i, vc := range counts {
		x := float64(plotLeft) + (float64(i)+0.5)*slot
		y := float64(plotBottom) - float64(vc.Count)/yMax*float64(plotH)
		fmt.Fprintf(b, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"%s\"/>\n", x, y, r.theme.Series)
		r.drawXLabel(b, x, vc.Value)
	}
}

// drawHexbin places a hexagonal marker per distinct value. At one
// observation per bin the density shading degenerates to a single color.
func (r *Renderer) drawHexbin(b *strings.Builder, counts []ValueCount) {
	yMax := valueScale(counts)
	r.drawFrame(b, yMax)
	if len(counts) == 0 {
		return
	}

	slot := float64(plotW) / float64(len(counts))
	for i, vc := range counts {
		x := float64(plotLeft) + (float64(i)+0.5)*slot
		y := float64(plotBottom) - float64(vc.Count)/yMax*float64(plotH)
		fmt.Fprintf(b, "<polygon points=\"%s\" fill=\"%s\" fill-opacity=\"0.8\"/>\n",
			hexPoints(x, y, 9), r.theme.Series)
		r.drawXLabel(b, x, vc.Value)
	}
}

// hexPoints returns the vertex list of a pointy-top hexagon.
func hexPoints(cx, cy, radius float64) string {
	pts := make([]string, 6)
	for k := 0; k < 6; k++ {
		a := math.Pi/2 + float64(k)*math.Pi/3
		pts[k] = fmt.Sprintf("%.1f,%.1f", cx+radius*math.Cos(a), cy+radius*math.Sin(a))
	}
	return strings.Join(pts, " ")
}

// valueScale returns the top of the count axis, at least 1 so empty tables
// still produce a usable frame.
func valueScale(counts []ValueCount) float64 {
	if m := maxCount(counts); m > 0 {
		return float64(m)
	}
	return 1
}

func maxCount(counts []ValueCount) int {
	max := 0
	for _, vc := range counts {
		if vc.Count > max {
			max = vc.Count
		}
	}
	return max
}

// quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// escape replaces characters that would break SVG text content.
func escape(s string) string {
	return xmlEscaper.Replace(s)
}
