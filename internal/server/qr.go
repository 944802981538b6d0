package server

import (
	"encoding/base64"
	"fmt"
	"net"

	"github.com/skip2/go-qrcode"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
)

// LocalIP returns the address of the interface used for outbound traffic, or
// "localhost" when there is no route. No packets are sent.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return "localhost"
	}
	return addr.IP.String()
}

// PairingURL is the address a phone on the same network opens.
func PairingURL(publicHost string, port int) string {
	host := publicHost
	if host == "" {
		host = LocalIP()
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// QRDataURI renders url as a PNG QR code in the teleprompter colours.
func QRDataURI(url string) (string, error) {
	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	code.ForegroundColor = constants.QRConfig.Foreground
	code.BackgroundColor = constants.QRConfig.Background

	png, err := code.PNG(constants.QRConfig.Size)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
