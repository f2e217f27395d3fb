package gnats

// Version is the library version reported in the CONNECT frame.
const Version = "0.1.0"

const (
	clientLang = "go"

	// clientProtoInfo tells the server this client understands asynchronous
	// INFO updates.
	clientProtoInfo = 1

	crlf = "\r\n"

	pingFrame = "PING\r\n"
	pongFrame = "PONG\r\n"
)
