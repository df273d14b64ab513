package model

// Participant is one roster entry. The roster is owned by an external
// store; the engine only reads snapshots of it.
type Participant struct {
	ID     string `json:"id"               yaml:"id"`
	Number string `json:"number"           yaml:"number"`
	// up to four person names, sport dependent
	Driver       string `json:"driver,omitempty"       yaml:"driver,omitempty"`
	Navigator    string `json:"navigator,omitempty"    yaml:"navigator,omitempty"`
	ThirdDriver  string `json:"thirdDriver,omitempty"  yaml:"thirdDriver,omitempty"`
	FourthDriver string `json:"fourthDriver,omitempty" yaml:"fourthDriver,omitempty"`
	Team         string `json:"team,omitempty"         yaml:"team,omitempty"`
	// entries may be comma separated composites ("Shell, Ferrari, UPS")
	Sponsors []string `json:"sponsors,omitempty" yaml:"sponsors,omitempty"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	Plate    string   `json:"plate,omitempty"    yaml:"plate,omitempty"`
	Metatag  string   `json:"metatag,omitempty"  yaml:"metatag,omitempty"`
}

// Names returns the non-empty person names of the participant.
func (p *Participant) Names() []string {
	ret := make([]string, 0, 4)
	for _, n := range []string{p.Driver, p.Navigator, p.ThirdDriver, p.FourthDriver} {
		if n != "" {
			ret = append(ret, n)
		}
	}
	return ret
}

// Roster is an ordered snapshot of the participants known for an event.
type Roster struct {
	ID           string        `json:"id"           yaml:"id"`
	Participants []Participant `json:"participants" yaml:"participants"`
}
