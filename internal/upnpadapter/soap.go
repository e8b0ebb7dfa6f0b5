// Package upnpadapter implements the UPnP/DLNA AV renderer adapter
// spec.md §1 names, satisfying adapter.Logic. Grounded directly on the
// AVTransport/RenderingControl SOAP action and response shapes from
// other_examples' Sonos cast-control file (Sonos's MediaRenderer
// implements the standard UPnP AVTransport:1/RenderingControl:1
// services this adapter targets, so those types generalize to any
// compliant UPnP renderer, not just Sonos).
package upnpadapter

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	avTransportURN      = "urn:schemas-upnp-org:service:AVTransport:1"
	renderingControlURN = "urn:schemas-upnp-org:service:RenderingControl:1"
	requestTimeout      = 5 * time.Second
)

// soapEnvelope wraps a single SOAP action body, mirroring the Sonos
// reference's SOAPEnvelope/SOAPBody split (an `,any` body content field
// so any action struct can be the payload).
type soapEnvelope struct {
	XMLName       xml.Name  `xml:"s:Envelope"`
	XmlnsS        string    `xml:"xmlns:s,attr"`
	EncodingStyle string    `xml:"s:encodingStyle,attr"`
	Body          soapBody  `xml:"s:Body"`
}

type soapBody struct {
	Content any `xml:",any"`
}

// soapFault is a partial SOAP Fault body, enough to detect and surface
// device-rejected actions.
type soapFault struct {
	XMLName     xml.Name `xml:"Fault"`
	FaultString string   `xml:"faultstring"`
}

func newEnvelope(action any) soapEnvelope {
	return soapEnvelope{
		XmlnsS:        "http://schemas.xmlsoap.org/soap/envelope/",
		EncodingStyle: "http://schemas.xmlsoap.org/soap/encoding/",
		Body:          soapBody{Content: action},
	}
}

// doSOAP posts action to controlURL with the given service URN and
// action name in SOAPACTION, then decodes respOut from the body (an
// AVTransport/RenderingControl *Response struct, or nil to discard the
// body for fire-and-forget actions like Play/Pause/Stop).
func doSOAP(ctx context.Context, httpClient *http.Client, controlURL, urn, actionName string, action any, respOut any) error {
	body, err := xml.Marshal(newEnvelope(action))
	if err != nil {
		return errMalformed("encode SOAP action: %v", err)
	}
	payload := []byte(xml.Header)
	payload = append(payload, body...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewReader(payload))
	if err != nil {
		return errMalformed("build SOAP request: %v", err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"%s#%s"`, urn, actionName))

	resp, err := httpClient.Do(req)
	if err != nil {
		return errUnreachable(err, "upnp: SOAP request to %s failed", controlURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errMalformed("read SOAP response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Body struct {
				Fault soapFault `xml:"Fault"`
			} `xml:"Body"`
		}
		xml.Unmarshal(data, &envelope)
		return errUnreachable(nil, "upnp: %s returned HTTP %d: %s", actionName, resp.StatusCode, envelope.Body.Fault.FaultString)
	}

	if respOut == nil {
		return nil
	}

	var envelope struct {
		Body struct {
			Content []byte `xml:",innerxml"`
		} `xml:"Body"`
	}
	if err := xml.Unmarshal(data, &envelope); err != nil {
		return errMalformed("decode SOAP envelope: %v", err)
	}
	if err := xml.Unmarshal(envelope.Body.Content, respOut); err != nil {
		return errMalformed("decode %s response: %v", actionName, err)
	}
	return nil
}
