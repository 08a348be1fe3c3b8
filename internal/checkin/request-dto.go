package checkin

type VerifyQRRequest struct {
	QRCode string `json:"qrCode" binding:"required"`
}
