package station

// Key addresses one queue: a station, or a station plus one of its rooms.
// A struct key avoids the ambiguity of concatenated station_room strings
// when station identifiers themselves contain underscores.
type Key struct {
	Station string
	Room    string
}

func KeyFor(stationID, room string) Key {
	return Key{Station: stationID, Room: room}
}

func (k Key) String() string {
	if k.Room == "" {
		return k.Station
	}
	return k.Station + "_" + k.Room
}
