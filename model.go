package fortress

// ArmStatus is the arm status reported by the panel.
//
// The values match the command codes, so a status can be compared directly
// against the Command that produces it.
type ArmStatus byte

const (
	ArmStatusArmed     ArmStatus = 0x00
	ArmStatusDisarmed  ArmStatus = 0x10
	ArmStatusStayArmed ArmStatus = 0x20
	ArmStatusUnknown   ArmStatus = 0xff
)

func (s ArmStatus) String() string {
	switch s {
	case ArmStatusArmed:
		return "Armed"
	case ArmStatusDisarmed:
		return "Disarmed"
	case ArmStatusStayArmed:
		return "StayArmed"
	default:
		return "Unknown"
	}
}

// Command is the code sent in a command frame.
type Command byte

const (
	CommandArm     Command = 0x00
	CommandDisarm  Command = 0x10
	CommandStayArm Command = 0x20
)

func (c Command) String() string {
	switch c {
	case CommandArm:
		return "Arm"
	case CommandDisarm:
		return "Disarm"
	case CommandStayArm:
		return "StayArm"
	default:
		return "Unknown"
	}
}

// Status returns the arm status the panel reports after executing the command.
func (c Command) Status() ArmStatus {
	return ArmStatus(c)
}

// NoZone is reported alongside a cleared alarm.
const NoZone = 0

type Alarm struct {
	Alarming bool
	Zone     int
}

// Status is a decoded status frame.
type Status struct {
	ArmStatus ArmStatus
	Alarming  bool
	Zone      int
}
