// Package pairing handles partner device onboarding via QR codes.
package pairing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ConnectInfo contains the information encoded in the QR code: where the
// partner app should connect and the token it should present.
type ConnectInfo struct {
	WebSocket string `json:"ws"`
	HTTP      string `json:"http"`
	Token     string `json:"token,omitempty"`
}

// QRGenerator generates QR codes for partner device onboarding.
type QRGenerator struct {
	host          string
	port          int
	token         string
	externalWSURL string // Optional: public URL when the server sits behind a tunnel or proxy
}

// NewQRGenerator creates a new QR code generator.
func NewQRGenerator(host string, port int) *QRGenerator {
	return &QRGenerator{host: host, port: port}
}

// SetExternalWSURL overrides the advertised feed URL for proxied setups.
func (g *QRGenerator) SetExternalWSURL(wsURL string) {
	g.externalWSURL = wsURL
}

// SetToken sets the access token embedded in the QR code.
func (g *QRGenerator) SetToken(token string) {
	g.token = token
}

// GetConnectInfo returns the connection details the QR code encodes.
func (g *QRGenerator) GetConnectInfo() *ConnectInfo {
	wsURL := fmt.Sprintf("ws://%s:%d/ws/orders", g.host, g.port)
	if g.externalWSURL != "" {
		wsURL = g.externalWSURL
	}

	return &ConnectInfo{
		WebSocket: wsURL,
		HTTP:      fmt.Sprintf("http://%s:%d", g.host, g.port),
		Token:     g.token,
	}
}

// GenerateJSON returns the connect info as JSON.
func (g *QRGenerator) GenerateJSON() (string, error) {
	data, err := json.Marshal(g.GetConnectInfo())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateTerminal generates a QR code for terminal display.
func (g *QRGenerator) GenerateTerminal() (string, error) {
	jsonData, err := g.GenerateJSON()
	if err != nil {
		return "", err
	}

	qr, err := qrcode.New(jsonData, qrcode.Medium)
	if err != nil {
		return "", err
	}

	return qr.ToSmallString(false), nil
}

// GeneratePNG generates a PNG image of the QR code.
func (g *QRGenerator) GeneratePNG(size int) ([]byte, error) {
	jsonData, err := g.GenerateJSON()
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(jsonData, qrcode.Medium, size)
}

// PrintToTerminal prints the QR code to the terminal with a border.
func (g *QRGenerator) PrintToTerminal() {
	qrStr, err := g.GenerateTerminal()
	if err != nil {
		fmt.Printf("  [Error generating QR code: %v]\n", err)
		return
	}

	lines := strings.Split(qrStr, "\n")

	fmt.Println()
	fmt.Println("  Scan with the partner app:")
	fmt.Println()

	for _, line := range lines {
		if line != "" {
			fmt.Printf("  %s\n", line)
		}
	}

	fmt.Println()
}
