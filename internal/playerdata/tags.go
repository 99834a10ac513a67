package playerdata

import (
	"bytes"
	"fmt"

	"github.com/Tnze/go-mc/nbt"
)

var tagNames = [...]string{
	nbt.TagEnd:       "TAG_End",
	nbt.TagByte:      "TAG_Byte",
	nbt.TagShort:     "TAG_Short",
	nbt.TagInt:       "TAG_Int",
	nbt.TagLong:      "TAG_Long",
	nbt.TagFloat:     "TAG_Float",
	nbt.TagDouble:    "TAG_Double",
	nbt.TagByteArray: "TAG_Byte_Array",
	nbt.TagString:    "TAG_String",
	nbt.TagList:      "TAG_List",
	nbt.TagCompound:  "TAG_Compound",
	nbt.TagIntArray:  "TAG_Int_Array",
	nbt.TagLongArray: "TAG_Long_Array",
}

// TagName returns the conventional name of a tag type id.
func TagName(t byte) string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("TAG_%#02x", t)
}

// Clone returns a copy of v that shares no bytes with it.
func Clone(v nbt.RawMessage) nbt.RawMessage {
	return nbt.RawMessage{Type: v.Type, Data: bytes.Clone(v.Data)}
}

