package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/trireel/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 主題模擬統計報告
type StatReport struct {
	Summary *SummaryReport  `json:"Summary"`
	Theory  *TheoryReport   `json:"Theory"`
	Symbols []*SymbolReport `json:"Symbols"`
	Fit     *FitReport      `json:"Fit,omitzero"`
	isDone  bool
}

// SummaryReport 基本統計
//
// 每局押注固定為 1 單位，TotalWin 即為贏倍總和。
type SummaryReport struct {
	ThemeName    string   `json:"ThemeName"`
	ThemeId      spec.TID `json:"ThemeId"`
	Multiplier   float64  `json:"Multiplier"`
	Rounds       int      `json:"Rounds"`
	Guaranteed   int      `json:"Guaranteed"`
	TotalBet     int      `json:"TotalBet"`
	TotalWin     float64  `json:"TotalWin"`
	TotalWinSq   float64  `json:"TotalWinSq"` // 平方和
	FullMatch    int      `json:"FullMatch"`
	PartialMatch int      `json:"PartialMatch"`
	NoMatch      int      `json:"NoMatch"`
	FullRate     float64  `json:"FullRate"`
	FullRateCI   CI       `json:"FullRateCI"`
	PartialRate  float64  `json:"PartialRate"`
	NoMatchRate  float64  `json:"NoMatchRate"`
	RTP          float64  `json:"RTP"`
	RtpCI        CI       `json:"RtpCI"`
	Std          float64  `json:"Std"`
	Cv           float64  `json:"Cv"`
}

// SymbolReport 單一符號的抽樣統計（只計一般抽樣，不含必中局）
type SymbolReport struct {
	Symbol      spec.SymbolID `json:"Symbol"`
	Payout      float64       `json:"Payout"`
	Probability float64       `json:"Probability"`
	Draws       int           `json:"Draws"`
	Freq        float64       `json:"Freq"`
	FullMatch   int           `json:"FullMatch"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	sm := s.Summary
	sm.TotalBet = sm.Rounds
	sm.RTP = s.Rtp()
	sm.RtpCI = s.Ci()
	sm.Std = s.Std()
	sm.Cv = s.Cv()
	if sm.Rounds > 0 {
		r := float64(sm.Rounds)
		sm.FullRate = float64(sm.FullMatch) / r
		sm.PartialRate = float64(sm.PartialMatch) / r
		sm.NoMatchRate = float64(sm.NoMatch) / r
		_, sm.FullRateCI = proportionCICP(sm.FullMatch, sm.Rounds, 0.95)
	}

	draws := 0
	for _, sym := range s.Symbols {
		draws += sym.Draws
	}
	obs := make([]float64, len(s.Symbols))
	probs := make([]float64, len(s.Symbols))
	for i, sym := range s.Symbols {
		if draws > 0 {
			sym.Freq = float64(sym.Draws) / float64(draws)
		}
		obs[i] = float64(sym.Draws)
		probs[i] = sym.Probability
	}
	if draws > 0 && len(s.Symbols) > 1 {
		s.Fit = ChiSquareFit(obs, probs)
	}
	s.isDone = true
}

// Rtp 回傳整體 RTP（總贏倍 / 總押注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 {
		return 0
	}
	return s.Summary.TotalWin / float64(s.Summary.Rounds)
}

// Std 回傳單局贏倍的標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)
	tw := s.Summary.TotalWin
	variance := (s.Summary.TotalWinSq - tw*tw/rounds) / (rounds - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳單局贏倍的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	if rtp <= 0 {
		return 0
	}
	return s.Std() / rtp
}

// Ci 回傳(95% Rtp)信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	se := 0.0
	if s.Summary.Rounds > 1 {
		se = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	return CI{
		Lo: max(rtp-1.96*se, 0.0),
		Hi: rtp + 1.96*se,
	}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 以表格輸出報告；ut 為模擬耗時。
func (s *StatReport) StdOut(ut time.Duration) {
	s.Fprint(os.Stdout, ut)
}

// Fprint 同 StdOut，但輸出到 w。
func (s *StatReport) Fprint(w io.Writer, ut time.Duration) {
	s.Done()
	fmt.Fprint(w, formatDuration(ut, s.Summary.Rounds))
	sk, sm := s.fmtBasic()
	fmt.Fprintln(w, fmtTable(s.Summary.ThemeName, sk, sm))
	sk, sm = s.fmtSymbols()
	fmt.Fprintln(w, fmtTable("Symbols (observed / expected)", sk, sm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, spins int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(spins) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nsps : %d spins/sec\n", m, s, sps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nsps : %d spins/sec\n", h, m, s, sps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sm, th := s.Summary, s.Theory
	basic := map[string]string{
		"Theme":         p.Sprintf("%s (%d)", sm.ThemeName, sm.ThemeId),
		"Multiplier":    p.Sprintf("%.2f", sm.Multiplier),
		"Total Rounds":  p.Sprintf("%d", sm.Rounds),
		"Guaranteed":    p.Sprintf("%d", sm.Guaranteed),
		"Total RTP":     p.Sprintf("%.2f %%", 100.0*sm.RTP),
		"RTP 95% CI":    p.Sprintf("[%.2f%%,%.2f%%]", 100.0*sm.RtpCI.Lo, 100.0*sm.RtpCI.Hi),
		"Full Match":    p.Sprintf("%.3f%% (theory %.3f%%)", 100.0*sm.FullRate, 100.0*th.Full),
		"Full 95% CI":   p.Sprintf("[%.3f%%,%.3f%%]", 100.0*sm.FullRateCI.Lo, 100.0*sm.FullRateCI.Hi),
		"Partial Match": p.Sprintf("%.3f%% (theory %.3f%%)", 100.0*sm.PartialRate, 100.0*th.Partial),
		"No Match":      p.Sprintf("%.3f%% (theory %.3f%%)", 100.0*sm.NoMatchRate, 100.0*th.None),
		"Theory RTP":    p.Sprintf("%.2f %%", 100.0*th.RTP),
		"STD":           p.Sprintf("%.3f", sm.Std),
		"CV":            p.Sprintf("%.3f", sm.Cv),
	}
	keys := []string{"Theme", "Multiplier", "Total Rounds", "Guaranteed", "Total RTP", "RTP 95% CI", "Theory RTP", "Full Match", "Full 95% CI", "Partial Match", "No Match", "STD", "CV"}
	if s.Fit != nil {
		basic["Chi-Square"] = p.Sprintf("%.3f (df=%d, p=%.4f)", s.Fit.ChiSquare, s.Fit.DF, s.Fit.PValue)
		keys = append(keys, "Chi-Square")
	}
	return keys, basic
}

func (s *StatReport) fmtSymbols() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Symbols))
	msg := make(map[string]string, len(s.Symbols))
	for _, sym := range s.Symbols {
		k := p.Sprintf("%s x%g", sym.Symbol, sym.Payout)
		keys = append(keys, k)
		msg[k] = p.Sprintf("%.3f%% / %.3f%%  (3x: %d)", 100.0*sym.Freq, 100.0*sym.Probability, sym.FullMatch)
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	if titleW > totalInner {
		maxValLen += titleW - totalInner
		totalInner = titleW
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", totalInner) + "+\n"

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
