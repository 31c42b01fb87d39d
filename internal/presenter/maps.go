// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import "github.com/vorlif/spreak/localize"

// Message IDs of the texts shown next to the address field. The Russian translations live
// in the i18n package.
const (
	msgUnknownAddress localize.MsgID = "unknown address"
	msgNotDeliverable localize.MsgID = "Unfortunately, we do not deliver to this address yet"
	msgLookingUp      localize.MsgID = "Looking up address"
	msgConfirm        localize.MsgID = "Confirm address"
	msgUpdated        localize.MsgID = "updated %s"
	msgResults        localize.MsgID = "%d result"
	msgResultsPlural  localize.MsgID = "%d results"
)

// MarkerIcon maps the marker state to the pin shown on the map.
var MarkerIcon = map[bool]string{
	true:  "📍",
	false: "🚫",
}
