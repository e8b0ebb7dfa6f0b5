// Package openhomeadapter implements the OpenHome adapter spec.md §1
// names alongside upnpadapter, satisfying adapter.Logic. OpenHome (the
// Linn-originated alternative to plain UPnP AVTransport, used by
// devices like Linn DS/Naim/Chromecast-via-ohNet) replaces AVTransport
// and RenderingControl with its own Transport/Volume/Time/Product
// services, but the wire shape — SOAP-over-HTTP actions discovered via
// a device description document — is identical, so this package mirrors
// internal/upnpadapter's SOAP envelope machinery (itself grounded on
// the Sonos reference's SOAP types) against OpenHome's service URNs.
package openhomeadapter

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
	transportURN   = "urn:av-openhome-org:service:Transport:1"
	volumeURN      = "urn:av-openhome-org:service:Volume:1"
	timeURN        = "urn:av-openhome-org:service:Time:1"
	productURN     = "urn:av-openhome-org:service:Product:1"
	requestTimeout = 5 * time.Second
)

type soapEnvelope struct {
	XMLName       xml.Name `xml:"s:Envelope"`
	XmlnsS        string   `xml:"xmlns:s,attr"`
	EncodingStyle string   `xml:"s:encodingStyle,attr"`
	Body          soapBody `xml:"s:Body"`
}

type soapBody struct {
	Content any `xml:",any"`
}

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

// doSOAP posts action to controlURL under urn/actionName and decodes
// respOut from the response body, mirroring upnpadapter's doSOAP.
func doSOAP(ctx context.Context, httpClient *http.Client, controlURL, urn, actionName string, action any, respOut any) error {
	body, err := xml.Marshal(newEnvelope(action))
	if err != nil {
		return errMalformed("encode SOAP action: %v", err)
	}
	payload := append([]byte(xml.Header), body...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewReader(payload))
	if err != nil {
		return errMalformed("build SOAP request: %v", err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"%s#%s"`, urn, actionName))

	resp, err := httpClient.Do(req)
	if err != nil {
		return errUnreachable(err, "openhome: SOAP request to %s failed", controlURL)
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
		return errUnreachable(nil, "openhome: %s returned HTTP %d: %s", actionName, resp.StatusCode, envelope.Body.Fault.FaultString)
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
