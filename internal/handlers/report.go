package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"insurez/internal/format"
	"insurez/internal/matcher"
	"insurez/internal/models"
	"insurez/internal/rules"
	sentryutil "insurez/internal/sentry"
)

// ---------- palette and page geometry ----------

var (
	cBlue    = [3]int{22, 58, 94}
	cBlueLt  = [3]int{44, 95, 138}
	cGreen   = [3]int{42, 107, 69}
	cGreenBg = [3]int{233, 245, 237}
	cAmber   = [3]int{154, 123, 46}
	cAmberBg = [3]int{250, 244, 230}
	cCream   = [3]int{248, 247, 243}
	cInk90   = [3]int{38, 38, 38}
	cInk50   = [3]int{107, 107, 107}
	cInk30   = [3]int{160, 160, 160}
	cInk08   = [3]int{235, 235, 235}
	cWhite   = [3]int{255, 255, 255}
)

const (
	pageW    = 210.0
	pageH    = 297.0
	marginL  = 20.0
	marginR  = 20.0
	marginT  = 20.0
	contentW = pageW - marginL - marginR // 170mm
)

func setFill(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
func setText(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
func setDraw(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetDrawColor(c[0], c[1], c[2]) }

// pdfSafe reduces s to ASCII for the core fonts, which have no rupee glyph.
func pdfSafe(s string) string {
	s = strings.ReplaceAll(s, "₹", "Rs. ")
	s = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`, "–", "-", "—", "-").Replace(s)
	return strings.Map(func(r rune) rune {
		if r > 0x7E {
			return '?'
		}
		return r
	}, s)
}

func scoreColor(score int) ([3]int, [3]int) {
	if score >= 70 {
		return cGreen, cGreenBg
	}
	if score >= 40 {
		return cAmber, cAmberBg
	}
	return cInk50, [3]int{240, 240, 240}
}

// ensureSpace adds a page when fewer than needed mm remain above the footer.
func ensureSpace(pdf *gofpdf.Fpdf, needed float64) float64 {
	y := pdf.GetY()
	if y+needed > pageH-25 {
		pdf.AddPage()
		return marginT + 10 // below header
	}
	return y
}

func drawPill(pdf *gofpdf.Fpdf, x, y float64, text string, bg, fg [3]int) float64 {
	pdf.SetFont("Helvetica", "B", 7.5)
	w := pdf.GetStringWidth(pdfSafe(text)) + 8
	setFill(pdf, bg)
	pdf.RoundedRect(x, y, w, 5.5, 2.5, "1234", "F")
	setText(pdf, fg)
	pdf.SetXY(x, y+0.5)
	pdf.CellFormat(w, 5, pdfSafe(text), "", 0, "C", false, 0, "")
	return w
}

// profileCell draws a label+value pair in the profile grid.
func profileCell(pdf *gofpdf.Fpdf, x, y, w float64, label, value string) {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, cInk50)
	pdf.CellFormat(w-6, 3.5, label, "", 1, "L", false, 0, "")
	pdf.SetXY(x, y+4.5)
	pdf.SetFont("Helvetica", "B", 9.5)
	setText(pdf, cInk90)
	if value == "" {
		value = "-"
	}
	pdf.CellFormat(w-6, 4.5, pdfSafe(value), "", 0, "L", false, 0, "")
}

// ---------- ReportHandler ----------

type reportRequest struct {
	Profile  models.UserProfile   `json:"profile"`
	Premium  *models.PremiumInput `json:"premium,omitempty"`
	Policies []models.Policy      `json:"policies,omitempty"`
}

// ReportHandler renders a PDF with the profile, the ranked recommendations
// and, when premium inputs are supplied, the premium quote with its factors.
func ReportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	if msg, ok := validateProfile(req.Profile); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if len(req.Policies) > maxSuppliedPolicies {
		writeError(w, http.StatusBadRequest, "Too many policies (max 500)")
		return
	}

	var quote *models.PremiumQuote
	if req.Premium != nil {
		if msg, ok := validatePremiumInput(*req.Premium); !ok {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		q, err := quotePremium(r.Context(), *req.Premium)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		quote = &q
	}

	policies := req.Policies
	if policies == nil {
		policies = getCatalog().All()
	}
	result := matcher.New(rules.Default()).Match(req.Profile, policies)

	code, _ := encodeProfile(req.Profile)
	now := time.Now()
	pdf := buildReport(req.Profile, code, result, quote, now)

	disposition := "attachment"
	if r.URL.Query().Get("mode") == "inline" {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="insurez-report-%s.pdf"`, disposition, now.Format("2006-01-02")))

	if err := pdf.Output(w); err != nil {
		sentryutil.CaptureError(err, map[string]string{"handler": "report", "phase": "pdf-output"})
		http.Error(w, "PDF generation failed", http.StatusInternalServerError)
	}
}

func buildReport(profile models.UserProfile, code string, result models.RecommendResult, quote *models.PremiumQuote, now time.Time) *gofpdf.Fpdf {
	dateDisplay := now.Format("02 Jan 2006")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginL, 15, marginR)
	pdf.SetAutoPageBreak(false, 20)
	pdf.SetTitle("Insurez report", false)
	pdf.SetCreator("insurez", false)

	isFirstPage := true

	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		setDraw(pdf, cInk08)
		pdf.SetLineWidth(0.3)
		pdf.Line(marginL, pdf.GetY(), pageW-marginR, pdf.GetY())
		pdf.SetY(-11)
		pdf.SetFont("Helvetica", "", 6.5)
		setText(pdf, cInk30)
		pdf.SetX(marginL)
		pdf.CellFormat(contentW/2, 8, "Rules "+result.RulesVersion, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW/2, 8, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.SetHeaderFunc(func() {
		if isFirstPage {
			return
		}
		pdf.SetY(8)
		pdf.SetX(marginL)
		pdf.SetFont("Helvetica", "B", 8)
		setText(pdf, cBlue)
		pdf.CellFormat(contentW/2, 4, "Insurez", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		setText(pdf, cInk30)
		pdf.CellFormat(contentW/2, 4, "Report of "+dateDisplay, "", 0, "R", false, 0, "")
		setDraw(pdf, cBlue)
		pdf.SetLineWidth(0.5)
		pdf.Line(marginL, 13.5, pageW-marginR, 13.5)
	})

	// ── Cover band ──
	pdf.AddPage()
	headerH := 48.0
	setFill(pdf, cBlue)
	pdf.Rect(0, 0, pageW, headerH, "F")
	setFill(pdf, cBlueLt)
	pdf.Rect(0, headerH-3, pageW, 3, "F")

	pdf.SetXY(marginL, 16)
	pdf.SetFont("Helvetica", "B", 24)
	setText(pdf, cWhite)
	pdf.CellFormat(contentW, 10, "Insurez", "", 1, "L", false, 0, "")
	pdf.SetX(marginL)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Your insurance recommendations - "+dateDisplay, "", 1, "L", false, 0, "")
	isFirstPage = false

	// ── Profile grid ──
	y := headerH + 10
	pdf.SetXY(marginL, y)
	pdf.SetFont("Helvetica", "B", 12)
	setText(pdf, cInk90)
	pdf.CellFormat(contentW, 7, "Your profile", "", 1, "L", false, 0, "")
	y += 9
	setFill(pdf, cCream)
	pdf.Rect(marginL, y, contentW, 26, "F")
	colW := contentW / 4
	profileCell(pdf, marginL+4, y+3, colW, "Age", fmt.Sprintf("%d", profile.Age))
	profileCell(pdf, marginL+4+colW, y+3, colW, "Dependents", fmt.Sprintf("%d", profile.Dependents))
	profileCell(pdf, marginL+4+2*colW, y+3, colW, "Smoking", profile.SmokingStatus)
	profileCell(pdf, marginL+4+3*colW, y+3, colW, "Risk tolerance", profile.RiskTolerance)
	profileCell(pdf, marginL+4, y+14, colW*2, "Primary goal", profile.PrimaryGoal)
	profileCell(pdf, marginL+4+2*colW, y+14, colW, "Family", profile.FamilyStatus)
	profileCell(pdf, marginL+4+3*colW, y+14, colW, "Employment", profile.EmploymentLevel)
	pdf.SetY(y + 30)

	if code != "" {
		pdf.SetX(marginL)
		pdf.SetFont("Courier", "", 7)
		setText(pdf, cInk50)
		pdf.MultiCell(contentW, 3.5, "Profile code: "+code, "", "L", false)
		pdf.Ln(2)
	}

	if quote != nil {
		drawQuote(pdf, *quote)
	}
	drawRecommendations(pdf, result)

	// ── Disclaimer ──
	ensureSpace(pdf, 20)
	pdf.Ln(6)
	pdf.SetX(marginL)
	pdf.SetFont("Helvetica", "I", 7)
	setText(pdf, cInk50)
	pdf.MultiCell(contentW, 3.5, "These figures are estimates from a simplified rating model. "+
		"Insurers price individually; confirm premiums and terms with the provider before buying.", "", "C", false)

	return pdf
}

func drawQuote(pdf *gofpdf.Fpdf, q models.PremiumQuote) {
	y := ensureSpace(pdf, 60)
	pdf.SetXY(marginL, y+4)
	pdf.SetFont("Helvetica", "B", 12)
	setText(pdf, cInk90)
	pdf.CellFormat(contentW, 7, pdfSafe("Premium estimate: "+models.NormalizePolicyType(q.Input.PolicyType)), "", 1, "L", false, 0, "")

	pdf.SetX(marginL)
	pdf.SetFont("Helvetica", "B", 18)
	setText(pdf, cBlue)
	pdf.CellFormat(contentW/2, 10, pdfSafe(q.AnnualDisplay+" / year"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, cInk50)
	pdf.CellFormat(contentW/2, 10, pdfSafe(q.MonthlyDisplay+" / month"), "", 1, "R", false, 0, "")
	pdf.Ln(1)

	b := q.Result.Breakdown
	rows := [][2]string{
		{"Sum assured", format.WholeRupees(q.Input.SumAssured)},
		{"Base premium before factors", format.Rupees(b.BasePremiumBeforeFactors)},
		{"Age factor", format.Decimal(b.AgeFactor, 2)},
		{"Smoker factor", format.Decimal(b.SmokerFactor, 2)},
		{"Occupation multiplier", format.Decimal(b.OccupationMultiplier, 2)},
		{fmt.Sprintf("Term factor (%d years)", q.Input.PolicyTerm), format.Decimal(b.TermFactor, 3)},
		{"Add-ons factor", format.Decimal(b.AddonsFactor, 2)},
	}
	pdf.SetFont("Helvetica", "", 9)
	for i, row := range rows {
		if i%2 == 0 {
			setFill(pdf, cCream)
		} else {
			setFill(pdf, cWhite)
		}
		pdf.SetX(marginL)
		setText(pdf, cInk50)
		pdf.CellFormat(contentW*0.7, 6, pdfSafe(row[0]), "", 0, "L", true, 0, "")
		setText(pdf, cInk90)
		pdf.CellFormat(contentW*0.3, 6, pdfSafe(row[1]), "", 1, "R", true, 0, "")
	}
	pdf.Ln(4)
}

func drawRecommendations(pdf *gofpdf.Fpdf, result models.RecommendResult) {
	y := ensureSpace(pdf, 20)
	pdf.SetXY(marginL, y+2)
	pdf.SetFont("Helvetica", "B", 12)
	setText(pdf, cInk90)
	pdf.CellFormat(contentW, 7, fmt.Sprintf("Recommended policies (%d of %d evaluated)", len(result.Recommendations), result.Evaluated), "", 1, "L", false, 0, "")

	if len(result.Recommendations) == 0 {
		pdf.SetX(marginL)
		pdf.SetFont("Helvetica", "", 9)
		setText(pdf, cInk50)
		pdf.MultiCell(contentW, 5, "No policy in the current catalog matched this profile.", "", "L", false)
		return
	}

	for i, sp := range result.Recommendations {
		y = ensureSpace(pdf, 32)
		top := y + 3
		fg, bg := scoreColor(sp.Score)

		setFill(pdf, fg)
		pdf.Rect(marginL, top, 2.5, 26, "F")

		pdf.SetXY(marginL+6, top)
		pdf.SetFont("Helvetica", "B", 10.5)
		setText(pdf, cInk90)
		pdf.CellFormat(contentW-40, 6, pdfSafe(fmt.Sprintf("%d. %s", i+1, sp.Name)), "", 0, "L", false, 0, "")
		drawPill(pdf, pageW-marginR-26, top+0.5, fmt.Sprintf("%d / 100", sp.Score), bg, fg)

		pdf.SetXY(marginL+6, top+6.5)
		pdf.SetFont("Helvetica", "", 8)
		setText(pdf, cInk50)
		meta := fmt.Sprintf("%s  |  %s  |  cover %s  |  premium %s", sp.Type, sp.Provider,
			format.WholeRupees(sp.CoverageAmount), format.WholeRupees(sp.Premium))
		pdf.CellFormat(contentW-6, 4.5, pdfSafe(meta), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 8.5)
		setText(pdf, cInk90)
		for _, reason := range sp.Reasons {
			pdf.SetX(marginL + 6)
			pdf.CellFormat(contentW-6, 4.5, pdfSafe("+ "+reason), "", 1, "L", false, 0, "")
		}
		if sp.SmokerAnalysis != "" {
			pdf.SetX(marginL + 6)
			pdf.SetFont("Helvetica", "I", 7.5)
			setText(pdf, cInk50)
			pdf.MultiCell(contentW-6, 3.8, pdfSafe(sp.SmokerAnalysis), "", "L", false)
		}

		if pdf.GetY() < top+26 {
			pdf.SetY(top + 26)
		}
		pdf.Ln(2)
	}
}
