package websocket

import "sort"

// roomIndex tracks room membership in both directions: room name to member
// ids and socket id to joined room names. Rooms exist only through their
// membership; the last leave drops the room entirely.
//
// roomIndex has no lock of its own. Callers hold the Hub mutex, since
// membership consistency spans the room index and the connection registry.
type roomIndex struct {
	rooms       map[string]map[string]struct{}
	socketRooms map[string]map[string]struct{}
}

func newRoomIndex() *roomIndex {
	return &roomIndex{
		rooms:       make(map[string]map[string]struct{}),
		socketRooms: make(map[string]map[string]struct{}),
	}
}

// add joins id to room, creating the room if absent. Re-joining is a no-op.
func (ri *roomIndex) add(id, room string) {
	if ri.rooms[room] == nil {
		ri.rooms[room] = make(map[string]struct{})
	}
	ri.rooms[room][id] = struct{}{}

	if ri.socketRooms[id] == nil {
		ri.socketRooms[id] = make(map[string]struct{})
	}
	ri.socketRooms[id][room] = struct{}{}
}

// remove takes id out of room. Absent members and unknown rooms are no-ops.
func (ri *roomIndex) remove(id, room string) {
	if members := ri.rooms[room]; members != nil {
		delete(members, id)
		if len(members) == 0 {
			delete(ri.rooms, room)
		}
	}
	if joined := ri.socketRooms[id]; joined != nil {
		delete(joined, room)
		if len(joined) == 0 {
			delete(ri.socketRooms, id)
		}
	}
}

// removeAll takes id out of every room it joined and returns the rooms left.
func (ri *roomIndex) removeAll(id string) []string {
	joined := ri.socketRooms[id]
	left := make([]string, 0, len(joined))
	for room := range joined {
		left = append(left, room)
		if members := ri.rooms[room]; members != nil {
			delete(members, id)
			if len(members) == 0 {
				delete(ri.rooms, room)
			}
		}
	}
	delete(ri.socketRooms, id)
	return left
}

// members returns a snapshot of the ids currently in room.
func (ri *roomIndex) members(room string) []string {
	ids := make([]string, 0, len(ri.rooms[room]))
	for id := range ri.rooms[room] {
		ids = append(ids, id)
	}
	return ids
}

// roomsOf returns a snapshot of the rooms id has joined.
func (ri *roomIndex) roomsOf(id string) []string {
	rooms := make([]string, 0, len(ri.socketRooms[id]))
	for room := range ri.socketRooms[id] {
		rooms = append(rooms, room)
	}
	return rooms
}

// names returns every room with at least one member, sorted.
func (ri *roomIndex) names() []string {
	names := make([]string, 0, len(ri.rooms))
	for room := range ri.rooms {
		names = append(names, room)
	}
	sort.Strings(names)
	return names
}
