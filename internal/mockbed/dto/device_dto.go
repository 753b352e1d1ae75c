package dto

// DeviceResponse describes one simulated device.
type DeviceResponse struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Port        int    `json:"port"`
	Up          bool   `json:"up"`
	Connections int    `json:"connections"`
}

// DeviceListResponse wraps the device collection.
type DeviceListResponse struct {
	Testbed string           `json:"testbed"`
	Devices []DeviceResponse `json:"devices"`
}
