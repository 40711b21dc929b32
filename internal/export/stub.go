package export

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageW     = 210.0
	bannerH   = pageW * 6 / 16
	marginX   = 10.0
	contentW  = pageW - 2*marginX
	leftW     = contentW * 0.4
	rightX    = marginX + leftW + 4
	rightW    = contentW - leftW - 4
	bodyY     = bannerH + 8
	bigQR     = 56.0
	smallQR   = 22.0
	termsY    = 195.0
	sponsorY  = 232.0
	sponsorH  = 18.0
	footerY   = 256.0
	lineSmall = 4.5
)

var terms = []string{
	"E-tiket ini valid untuk satu orang pada tanggal dan waktu event.",
	"Tidak dapat dipindahtangankan atau diuangkan kembali.",
	"Tunjukkan e-tiket ini (digital/cetak) di pintu masuk.",
	"Penyelenggara berhak menolak masuk jika e-tiket tidak valid.",
	"Patuhi semua aturan yang berlaku di lokasi event.",
	"Dilarang membawa senjata tajam & zat berbahaya.",
}

type rgb struct{ r, g, b int }

var (
	navy      = rgb{0, 35, 71}
	turquoise = rgb{0, 169, 165}
	gray700   = rgb{55, 65, 81}
	gray500   = rgb{107, 114, 128}
	gray400   = rgb{156, 163, 175}
	gray100   = rgb{243, 244, 246}
	gray50    = rgb{249, 250, 251}
	border    = rgb{229, 231, 235}
)

// stubRenderer draws one ticket stub per page into a shared document.
type stubRenderer struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	codes   CodeEncoder
	banners BannerSource
	brand   Branding
	year    int
	images  map[string]string
}

func (r *stubRenderer) text(c rgb) { r.pdf.SetTextColor(c.r, c.g, c.b) }
func (r *stubRenderer) fill(c rgb) { r.pdf.SetFillColor(c.r, c.g, c.b) }
func (r *stubRenderer) draw(c rgb) { r.pdf.SetDrawColor(c.r, c.g, c.b) }

func (r *stubRenderer) render(ctx context.Context, rec *model.TransactionRecord, tk model.IssuedTicket) error {
	event := rec.Checkout.Event

	// Encode both codes before touching the page so a failure never leaves a
	// half-drawn page behind.
	ticketQR, err := r.codes.Matrix(tk.TicketNumber)
	if err != nil {
		return fmt.Errorf("ticket code: %w", err)
	}
	orderQR, err := r.codes.Matrix(rec.OrderID)
	if err != nil {
		return fmt.Errorf("order code: %w", err)
	}
	banner, err := r.bannerImage(ctx, event)
	if err != nil {
		return err
	}

	r.pdf.AddPage()
	r.pdf.ImageOptions(banner, 0, 0, pageW, bannerH, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")

	r.leftColumn(tk, ticketQR)
	r.rightColumn(rec, event, orderQR)
	r.termsBlock()
	r.sponsorBlock()
	r.footer()
	return nil
}

// bannerImage registers the event banner once per document and returns its
// image name.
func (r *stubRenderer) bannerImage(ctx context.Context, event model.Event) (string, error) {
	if name, ok := r.images[event.ID]; ok {
		return name, nil
	}
	img, err := r.banners.Banner(ctx, event)
	if err != nil {
		return "", fmt.Errorf("banner: %w", err)
	}
	data, err := encodeBanner(img)
	if err != nil {
		return "", err
	}
	name := "banner-" + strconv.Itoa(len(r.images))
	r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(data))
	if err := r.pdf.Error(); err != nil {
		return "", fmt.Errorf("register banner: %w", err)
	}
	r.images[event.ID] = name
	return name, nil
}

func (r *stubRenderer) leftColumn(tk model.IssuedTicket, qr [][]bool) {
	pdf := r.pdf
	colBottom := termsY - 6
	r.fill(gray50)
	pdf.Rect(marginX, bodyY, leftW, colBottom-bodyY, "F")
	r.draw(border)
	pdf.SetLineWidth(0.2)
	pdf.Line(marginX+leftW, bodyY, marginX+leftW, colBottom)

	cx := marginX + leftW/2
	y := bodyY + 4
	pdf.SetFont("Helvetica", "", 8)
	r.text(gray500)
	r.centered(cx, y, leftW, 4, "Pindai untuk Masuk")
	y += 6

	r.drawMatrix(qr, cx-bigQR/2, y, bigQR)
	y += bigQR + 5

	pdf.SetFont("Helvetica", "B", 12)
	r.text(navy)
	for _, line := range pdf.SplitText(r.tr(tk.HolderName), leftW-6) {
		pdf.SetXY(marginX+3, y)
		pdf.CellFormat(leftW-6, 5.5, line, "", 0, "C", false, 0, "")
		y += 5.5
	}

	pdf.SetFont("Helvetica", "", 8)
	r.text(gray500)
	r.centered(cx, y, leftW, 4, tk.HolderContact)
	y += 7

	pdf.SetFont("Helvetica", "B", 8)
	chip := r.tr(tk.CategoryName)
	chipW := pdf.GetStringWidth(chip) + 8
	if chipW > leftW-6 {
		chipW = leftW - 6
	}
	r.fill(turquoise)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(cx-chipW/2, y)
	pdf.CellFormat(chipW, 5.5, chip, "", 0, "C", true, 0, "")
	y += 9

	pdf.SetFont("Courier", "", 7)
	r.text(gray400)
	r.centered(cx, y, leftW, 4, tk.TicketNumber)
}

func (r *stubRenderer) rightColumn(rec *model.TransactionRecord, event model.Event, qr [][]bool) {
	pdf := r.pdf
	y := bodyY + 2

	pdf.SetFont("Helvetica", "B", 16)
	r.text(navy)
	pdf.SetXY(rightX, y)
	pdf.MultiCell(rightW, 7, r.tr(event.Name), "", "L", false)
	y = pdf.GetY() + 3

	pdf.SetFont("Helvetica", "", 10)
	rows := []struct{ label, value string }{
		{"Tanggal", event.DateDisplay},
		{"Waktu", model.FormatEventTime(event.TimeDisplay)},
		{"Lokasi", event.Location},
	}
	for _, row := range rows {
		r.text(turquoise)
		pdf.SetXY(rightX, y)
		pdf.CellFormat(18, 5.5, row.label, "", 0, "L", false, 0, "")
		r.text(gray700)
		pdf.SetXY(rightX+18, y)
		pdf.MultiCell(rightW-18, 5.5, r.tr(row.value), "", "L", false)
		y = pdf.GetY() + 0.5
	}

	organizer := event.OrganizerName
	if organizer == "" {
		organizer = r.brand.Organizer
	}
	pdf.SetXY(rightX, y+1)
	pdf.CellFormat(rightW, 5.5, r.tr("Penyelenggara: "+organizer), "", 0, "L", false, 0, "")

	// Orderer box sits at the bottom of the column.
	boxY := termsY - 6 - smallQR - 12
	r.draw(border)
	pdf.SetLineWidth(0.2)
	pdf.Line(rightX, boxY, rightX+rightW, boxY)

	pdf.SetFont("Helvetica", "B", 8)
	r.text(gray500)
	pdf.SetXY(rightX, boxY+2)
	pdf.CellFormat(rightW, 4, r.tr("DATA PEMESAN (ORDER ID: "+rec.OrderID+")"), "", 0, "L", false, 0, "")

	qrY := boxY + 8
	r.drawMatrix(qr, rightX, qrY, smallQR)

	tx := rightX + smallQR + 4
	tw := rightW - smallQR - 4
	buyer := []struct{ label, value string }{
		{"Nama", rec.Buyer.FullName},
		{"Email", rec.Buyer.Email},
		{"Telepon", rec.Buyer.Phone},
	}
	ly := qrY + 1
	for _, row := range buyer {
		pdf.SetXY(tx, ly)
		pdf.SetFont("Helvetica", "B", 9)
		r.text(gray700)
		pdf.CellFormat(16, 5, row.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(tw-16, 5, r.tr(row.value), "", 0, "L", false, 0, "")
		ly += 6
	}
}

func (r *stubRenderer) termsBlock() {
	pdf := r.pdf
	pdf.SetFont("Helvetica", "B", 8)
	r.text(gray700)
	pdf.SetXY(marginX, termsY)
	pdf.CellFormat(contentW, lineSmall, r.tr("Syarat & Ketentuan:"), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7.5)
	r.text(gray500)
	y := termsY + lineSmall + 0.5
	for _, t := range terms {
		pdf.SetXY(marginX+2, y)
		pdf.CellFormat(contentW-2, lineSmall, r.tr("• "+t), "", 0, "L", false, 0, "")
		y += lineSmall
	}
}

func (r *stubRenderer) sponsorBlock() {
	pdf := r.pdf
	r.fill(gray100)
	r.draw(border)
	pdf.SetLineWidth(0.2)
	pdf.Rect(marginX, sponsorY, contentW, sponsorH, "FD")

	pdf.SetFont("Helvetica", "B", 9)
	r.text(gray500)
	pdf.SetXY(marginX, sponsorY+4)
	pdf.CellFormat(contentW, 5, "Space Iklan Sponsor", "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7.5)
	r.text(gray400)
	pdf.SetXY(marginX, sponsorY+9.5)
	pdf.CellFormat(contentW, 4, "(Logo sponsor akan tampil di sini)", "", 0, "C", false, 0, "")
}

func (r *stubRenderer) footer() {
	pdf := r.pdf
	r.draw(gray400)
	pdf.SetLineWidth(0.2)
	pdf.SetDashPattern([]float64{1.5, 1}, 0)
	pdf.Line(marginX, footerY, marginX+contentW, footerY)
	pdf.SetDashPattern([]float64{}, 0)

	cx := marginX + contentW/2
	pdf.SetFont("Helvetica", "B", 14)
	r.text(navy)
	r.centered(cx, footerY+3, contentW, 7, r.brand.Name)

	pdf.SetFont("Helvetica", "", 8)
	r.text(gray500)
	r.centered(cx, footerY+11, contentW, 4, r.brand.Tagline)

	pdf.SetFont("Helvetica", "B", 8)
	r.text(turquoise)
	r.centered(cx, footerY+15.5, contentW, 4, r.brand.Site)

	pdf.SetFont("Helvetica", "", 7)
	r.text(gray400)
	r.centered(cx, footerY+21, contentW, 4,
		fmt.Sprintf("© %d %s. Hak Cipta Dilindungi.", r.year, r.brand.Company))
}

// centered writes one line of text centred on cx.
func (r *stubRenderer) centered(cx, y, w, h float64, s string) {
	r.pdf.SetXY(cx-w/2, y)
	r.pdf.CellFormat(w, h, r.tr(s), "", 0, "C", false, 0, "")
}

// drawMatrix paints dark modules as filled rectangles, merging horizontal
// runs to keep the content stream small.
func (r *stubRenderer) drawMatrix(m [][]bool, x, y, size float64) {
	if len(m) == 0 {
		return
	}
	pdf := r.pdf
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(x, y, size, size, "F")

	cell := size / float64(len(m))
	r.fill(navy)
	for row, cols := range m {
		for col := 0; col < len(cols); {
			if !cols[col] {
				col++
				continue
			}
			start := col
			for col < len(cols) && cols[col] {
				col++
			}
			pdf.Rect(x+float64(start)*cell, y+float64(row)*cell, float64(col-start)*cell, cell, "F")
		}
	}
}
