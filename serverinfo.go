package gnats

// ServerInfo holds the fields of the server's INFO payload. The server may
// send INFO again at any time; each one overwrites the previous state, and
// fields missing from the payload reset to their zero value.
type ServerInfo struct {
	ID           string
	Version      string
	Host         string
	Port         int64
	AuthRequired bool
	TLSRequired  bool
	TLSAvailable bool
	MaxPayload   int64
	ConnectURLs  []string
	Proto        int64
	CID          uint64
	Nonce        string
	ClientIP     string
	LameDuckMode bool
	Headers      bool
}

// unmarshalServerInfo fills info from a parsed INFO payload. A type
// mismatch on any known field fails the whole frame.
func unmarshalServerInfo(doc *JSON, info *ServerInfo) error {
	var err error
	if info.ID, err = doc.GetString("server_id"); err != nil {
		return err
	}
	if info.Version, err = doc.GetString("version"); err != nil {
		return err
	}
	if info.Host, err = doc.GetString("host"); err != nil {
		return err
	}
	if info.Port, err = doc.GetInt("port"); err != nil {
		return err
	}
	if info.AuthRequired, err = doc.GetBool("auth_required"); err != nil {
		return err
	}
	if info.TLSRequired, err = doc.GetBool("tls_required"); err != nil {
		return err
	}
	if info.TLSAvailable, err = doc.GetBool("tls_available"); err != nil {
		return err
	}
	if info.MaxPayload, err = doc.GetInt("max_payload"); err != nil {
		return err
	}
	if info.ConnectURLs, err = doc.GetStringArray("connect_urls"); err != nil {
		return err
	}
	if info.Proto, err = doc.GetInt("proto"); err != nil {
		return err
	}
	if info.CID, err = doc.GetUint("client_id"); err != nil {
		return err
	}
	if info.Nonce, err = doc.GetString("nonce"); err != nil {
		return err
	}
	if info.ClientIP, err = doc.GetString("client_ip"); err != nil {
		return err
	}
	if info.LameDuckMode, err = doc.GetBool("ldm"); err != nil {
		return err
	}
	if info.Headers, err = doc.GetBool("headers"); err != nil {
		return err
	}
	return nil
}
