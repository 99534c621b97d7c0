package scenario

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/model"
)

// AppStart is when client and server applications start on the simulation
// clock.
const AppStart = 500 * time.Millisecond

// EphemeralPort is the first source port a UDP client socket binds to.
const EphemeralPort = 49153

// Direction of a planned flow.
type Direction string

const (
	Downlink Direction = "dl"
	Uplink   Direction = "ul"
)

// PlannedFlow is a flow the scenario installs an application pair for.
type PlannedFlow struct {
	UE        int
	Direction Direction
	FiveTuple model.FiveTuple
}

// UEAddress returns the address the EPC helper assigns to UE u, counting up
// from the base address.
func UEAddress(base net.IP, u int) (net.IP, error) {
	v4 := base.To4()
	if v4 == nil {
		return nil, fmt.Errorf("UE base address %s is not IPv4", base)
	}
	n := uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
	n += uint32(u)
	return net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n)).To4(), nil
}

// Plan lists the flows the scenario installs: per UE one downlink flow from
// the remote host to the UE's dl port, and one uplink flow from the UE to
// the remote host on ul_port_base+u+1.
func Plan(cfg config.ScenarioConfig) ([]PlannedFlow, error) {
	remote := net.ParseIP(cfg.RemoteHostAddress).To4()
	if remote == nil {
		return nil, fmt.Errorf("invalid remote host address %q", cfg.RemoteHostAddress)
	}
	base := net.ParseIP(cfg.UeBaseAddress)
	if base == nil {
		return nil, fmt.Errorf("invalid UE base address %q", cfg.UeBaseAddress)
	}

	var flows []PlannedFlow
	ulPort := cfg.UlPortBase
	for u := 0; u < cfg.NumberOfUes; u++ {
		ue, err := UEAddress(base, u)
		if err != nil {
			return nil, err
		}
		if !cfg.DisableDl {
			flows = append(flows, PlannedFlow{
				UE:        u,
				Direction: Downlink,
				FiveTuple: model.FiveTuple{
					SrcIP:    remote,
					DstIP:    ue,
					SrcPort:  EphemeralPort + uint16(u),
					DstPort:  cfg.DlPort,
					Protocol: 17,
				},
			})
		}
		if !cfg.DisableUl {
			ulPort++
			flows = append(flows, PlannedFlow{
				UE:        u,
				Direction: Uplink,
				FiveTuple: model.FiveTuple{
					SrcIP:    ue,
					DstIP:    remote,
					SrcPort:  EphemeralPort,
					DstPort:  ulPort,
					Protocol: 17,
				},
			})
		}
	}
	return flows, nil
}

// Args renders the scenario parameters as simulator command-line flags. The
// UE count is not among them: the simulator reads it from stdin.
func Args(cfg config.ScenarioConfig) []string {
	return []string{
		"--numNodePairs=" + strconv.Itoa(cfg.NumNodePairs),
		"--simTime=" + cfg.SimTime,
		"--distance=" + strconv.FormatFloat(cfg.Distance, 'f', -1, 64),
		"--interPacketInterval=" + cfg.InterPacketInterval,
		"--useCa=" + strconv.FormatBool(cfg.UseCa),
		"--disableDl=" + strconv.FormatBool(cfg.DisableDl),
		"--disableUl=" + strconv.FormatBool(cfg.DisableUl),
		"--disablePl=" + strconv.FormatBool(cfg.DisablePl),
	}
}
