package protoc

// Capability is an operation a file system may support.
type Capability int

const (
	CapabilityCreate Capability = iota + 1
	CapabilityDelete
	CapabilityReadContent
	CapabilityRandomAccessRead
	CapabilityWriteContent
	CapabilityAppendContent
	CapabilityURI
)

var capabilityNames = map[Capability]string{
	CapabilityCreate:           "create",
	CapabilityDelete:           "delete",
	CapabilityReadContent:      "read-content",
	CapabilityRandomAccessRead: "random-access-read",
	CapabilityWriteContent:     "write-content",
	CapabilityAppendContent:    "append-content",
	CapabilityURI:              "uri",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

// AllCapabilities is the capability set of a fully featured file system.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityCreate,
		CapabilityDelete,
		CapabilityReadContent,
		CapabilityRandomAccessRead,
		CapabilityWriteContent,
		CapabilityAppendContent,
		CapabilityURI,
	}
}
