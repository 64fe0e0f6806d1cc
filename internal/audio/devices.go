package audio

import (
	"fmt"
	"sort"

	"github.com/gordonklaus/portaudio"
)

// Device describes a PortAudio device in a Go-friendly way.
type Device struct {
	Name            string
	MaxInput        int
	MaxOutput       int
	DefaultSampleHz float64
	HostAPI         string
	IsDefaultOutput bool
}

// ListDevices returns all available devices across host APIs, playback
// devices first within each host.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}

	var defaultOutputIndex = -1
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil {
		defaultOutputIndex = def.Index
	}

	devices := make([]Device, 0, len(hosts)*4)
	for _, host := range hosts {
		for _, d := range host.Devices {
			isDefault := d.Index == defaultOutputIndex
			if host.DefaultOutputDevice != nil && d.Index == host.DefaultOutputDevice.Index {
				isDefault = true
			}
			devices = append(devices, Device{
				Name:            d.Name,
				MaxInput:        d.MaxInputChannels,
				MaxOutput:       d.MaxOutputChannels,
				DefaultSampleHz: d.DefaultSampleRate,
				HostAPI:         host.Name,
				IsDefaultOutput: isDefault,
			})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].HostAPI != devices[j].HostAPI {
			return devices[i].HostAPI < devices[j].HostAPI
		}
		iOut := devices[i].MaxOutput > 0
		jOut := devices[j].MaxOutput > 0
		if iOut != jOut {
			return iOut
		}
		return devices[i].Name < devices[j].Name
	})

	return devices, nil
}
