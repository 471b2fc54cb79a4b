package sanitizer

import "studiobook/pkg/model"

// SanitizeReservationRequest normalises the fields of req in place.
func SanitizeReservationRequest(req *model.ReservationRequest, phoneRegions []string) {
	req.StartAt = TrimAndNormalize(req.StartAt)
	req.EndAt = TrimAndNormalize(req.EndAt)
	req.Timezone = TrimAndNormalize(req.Timezone)
	req.ClientName = NormalizeName(req.ClientName)
	req.ClientEmail = NormalizeEmail(req.ClientEmail)
	req.ClientPhone = NormalizePhone(req.ClientPhone, phoneRegions)
	req.Notes = NormalizeNotes(req.Notes)
}
