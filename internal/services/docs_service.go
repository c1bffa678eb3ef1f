package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/utils"
)

// DocsService renders the PDF e-ticket for a reservation.
type DocsService struct {
	Reservations ReservationStore
}

// GenerateETicket returns the PDF and a download filename. The reservation must belong
// to userID.
func (s DocsService) GenerateETicket(ctx context.Context, reservationID, userID string) ([]byte, string, error) {
	reservationID, err := requireID("reservation_id", reservationID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.Reservations.Ticket(ctx, reservationID, userID)
	if err != nil {
		return nil, "", domain.Internalize(err)
	}
	utils.LogEvent(utils.RequestID(ctx), "docs", "generate_eticket", "reservation="+reservationID)
	pdf, name, err := buildETicketPDF(data)
	if err != nil {
		return nil, "", domain.InternalError{Msg: "render e-ticket", Err: err}
	}
	return pdf, name, nil
}

func buildETicketPDF(d models.TicketData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	status := d.Trip.Status
	if status == "" {
		status = string(models.StatusScheduled)
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Passenger      : %s", utils.Safe(d.PassengerName, "-")),
		fmt.Sprintf("Email          : %s", utils.Safe(d.Email, "-")),
		fmt.Sprintf("Seat           : %d", d.SeatNumber),
		fmt.Sprintf("Route          : %s -> %s", utils.Safe(d.Trip.Source, "-"), utils.Safe(d.Trip.Destination, "-")),
		fmt.Sprintf("Departure      : %s", utils.FormatDateTime(d.Trip.DepartureAt)),
		fmt.Sprintf("Arrival        : %s", utils.FormatDateTime(d.Trip.ArrivalAt)),
		fmt.Sprintf("Vehicle        : %s", utils.Safe(d.Trip.VehicleName, "-")),
		fmt.Sprintf("Status         : %s", status),
		fmt.Sprintf("Ticket code    : %s", ticketCode(d)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This e-ticket is valid for one passenger (one seat). Please show it when boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%s_%d.pdf", safeFilenamePart(d.PassengerName), d.SeatNumber)
	return buf.Bytes(), filename, nil
}

func ticketCode(d models.TicketData) string {
	id := strings.ToUpper(strings.ReplaceAll(d.ReservationID, "-", ""))
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("TCK-%s-%02d", utils.Safe(id, "NA"), d.SeatNumber)
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
