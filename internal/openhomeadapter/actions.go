package openhomeadapter

import "encoding/xml"

// Transport service actions/responses, per OpenHome's Transport:1
// service definition (Play/Pause/Stop/Next/Previous/Seek plus a
// TransportState query — no InstanceID parameter, unlike UPnP
// AVTransport, since an OpenHome device has exactly one transport).

type ohPlayAction struct {
	XMLName xml.Name `xml:"u:Play"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohPauseAction struct {
	XMLName xml.Name `xml:"u:Pause"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohStopAction struct {
	XMLName xml.Name `xml:"u:Stop"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohNextAction struct {
	XMLName xml.Name `xml:"u:Next"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohPreviousAction struct {
	XMLName xml.Name `xml:"u:Previous"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohSeekSecondAbsoluteAction struct {
	XMLName xml.Name `xml:"u:SeekSecondAbsolute"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
	Value   uint32   `xml:"Value"`
}

type ohTransportStateAction struct {
	XMLName xml.Name `xml:"u:TransportState"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohTransportStateResponse struct {
	XMLName xml.Name `xml:"TransportStateResponse"`
	State   string   `xml:"aState"`
}

// Time service.

type ohTimeAction struct {
	XMLName xml.Name `xml:"u:Time"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohTimeResponse struct {
	XMLName    xml.Name `xml:"TimeResponse"`
	TrackCount uint32   `xml:"aTrackCount"`
	Duration   uint32   `xml:"aDuration"`
	Seconds    uint32   `xml:"aSeconds"`
}

// Volume service.

type ohVolumeAction struct {
	XMLName xml.Name `xml:"u:Volume"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohVolumeResponse struct {
	XMLName xml.Name `xml:"VolumeResponse"`
	Value   int      `xml:"aValue"`
}

type ohSetVolumeAction struct {
	XMLName xml.Name `xml:"u:SetVolume"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
	Value   int       `xml:"Value"`
}

type ohMuteAction struct {
	XMLName xml.Name `xml:"u:Mute"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohMuteResponse struct {
	XMLName xml.Name `xml:"MuteResponse"`
	Value   bool     `xml:"aValue"`
}

type ohSetMuteAction struct {
	XMLName xml.Name `xml:"u:SetMute"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
	Value   bool     `xml:"Value"`
}

// Product service — just enough to label a zone with the device's room
// name; full Source/Standby control is out of this adapter's thin scope.

type ohProductRoomAction struct {
	XMLName xml.Name `xml:"u:Room"`
	XmlnsU  string   `xml:"xmlns:u,attr"`
}

type ohProductRoomResponse struct {
	XMLName xml.Name `xml:"RoomResponse"`
	Room    string   `xml:"aRoom"`
}
