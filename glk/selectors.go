// This file is part of glulx - https://github.com/db47h/glulx
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package glk

// selector describes a glk function by name and argument count.
type selector struct {
	name string
	argc int
}

// glk function selectors
const (
	fnExit                = 0x0001
	fnSetInterruptHandler = 0x0002
	fnTick                = 0x0003
	fnGestalt             = 0x0004
	fnGestaltExt          = 0x0005
	fnWindowIterate       = 0x0020
	fnWindowGetRock       = 0x0021
	fnWindowGetRoot       = 0x0022
	fnWindowOpen          = 0x0023
	fnWindowClose         = 0x0024
	fnWindowGetSize       = 0x0025
	fnWindowSetArrange    = 0x0026
	fnWindowGetArrange    = 0x0027
	fnWindowGetType       = 0x0028
	fnWindowGetParent     = 0x0029
	fnWindowClear         = 0x002A
	fnWindowMoveCursor    = 0x002B
	fnWindowGetStream     = 0x002C
	fnWindowSetEcho       = 0x002D
	fnWindowGetEcho       = 0x002E
	fnSetWindow           = 0x002F
	fnWindowGetSibling    = 0x0030
	fnStreamIterate       = 0x0040
	fnStreamGetRock       = 0x0041
	fnStreamOpenFile      = 0x0042
	fnStreamOpenMemory    = 0x0043
	fnStreamClose         = 0x0044
	fnStreamSetPosition   = 0x0045
	fnStreamGetPosition   = 0x0046
	fnStreamSetCurrent    = 0x0047
	fnStreamGetCurrent    = 0x0048
	fnFilerefCreateTemp   = 0x0060
	fnFilerefCreateByName = 0x0061
	fnFilerefCreateByPrmt = 0x0062
	fnFilerefDestroy      = 0x0063
	fnFilerefIterate      = 0x0064
	fnFilerefGetRock      = 0x0065
	fnFilerefDeleteFile   = 0x0066
	fnFilerefDoesExist    = 0x0067
	fnFilerefFromFileref  = 0x0068
	fnPutChar             = 0x0080
	fnPutCharStream       = 0x0081
	fnPutString           = 0x0082
	fnPutStringStream     = 0x0083
	fnPutBuffer           = 0x0084
	fnPutBufferStream     = 0x0085
	fnSetStyle            = 0x0086
	fnSetStyleStream      = 0x0087
	fnGetCharStream       = 0x0090
	fnGetLineStream       = 0x0091
	fnGetBufferStream     = 0x0092
	fnCharToLower         = 0x00A0
	fnCharToUpper         = 0x00A1
	fnStylehintSet        = 0x00B0
	fnStylehintClear      = 0x00B1
	fnStyleDistinguish    = 0x00B2
	fnStyleMeasure        = 0x00B3
	fnSelect              = 0x00C0
	fnSelectPoll          = 0x00C1
	fnRequestLineEvent    = 0x00D0
	fnCancelLineEvent     = 0x00D1
	fnRequestCharEvent    = 0x00D2
	fnCancelCharEvent     = 0x00D3
	fnRequestMouseEvent   = 0x00D4
	fnCancelMouseEvent    = 0x00D5
	fnRequestTimerEvents  = 0x00D6
	fnImageGetInfo        = 0x00E0
	fnImageDraw           = 0x00E1
	fnImageDrawScaled     = 0x00E2
	fnSetHyperlink        = 0x0100
	fnSetHyperlinkStream  = 0x0101
	fnRequestHyperlink    = 0x0102
	fnCancelHyperlink     = 0x0103
	fnBufferToLowerUni    = 0x0120
	fnBufferToUpperUni    = 0x0121
	fnBufferToTitleUni    = 0x0122
	fnPutCharUni          = 0x0128
	fnPutStringUni        = 0x0129
	fnPutBufferUni        = 0x012A
	fnPutCharStreamUni    = 0x012B
	fnPutStringStreamUni  = 0x012C
	fnPutBufferStreamUni  = 0x012D
	fnGetCharStreamUni    = 0x0130
	fnGetBufferStreamUni  = 0x0131
	fnGetLineStreamUni    = 0x0132
	fnStreamOpenFileUni   = 0x0138
	fnStreamOpenMemoryUni = 0x0139
	fnRequestCharEventUni = 0x0140
	fnRequestLineEventUni = 0x0141
	fnSetEchoLineEvent    = 0x0150
	fnSetTerminatorsLine  = 0x0151
)

var selectors = map[uint32]selector{
	fnExit:                {"exit", 0},
	fnSetInterruptHandler: {"set_interrupt_handler", 1},
	fnTick:                {"tick", 0},
	fnGestalt:             {"gestalt", 2},
	fnGestaltExt:          {"gestalt_ext", 4},
	fnWindowIterate:       {"window_iterate", 2},
	fnWindowGetRock:       {"window_get_rock", 1},
	fnWindowGetRoot:       {"window_get_root", 0},
	fnWindowOpen:          {"window_open", 5},
	fnWindowClose:         {"window_close", 2},
	fnWindowGetSize:       {"window_get_size", 3},
	fnWindowSetArrange:    {"window_set_arrangement", 4},
	fnWindowGetArrange:    {"window_get_arrangement", 4},
	fnWindowGetType:       {"window_get_type", 1},
	fnWindowGetParent:     {"window_get_parent", 1},
	fnWindowClear:         {"window_clear", 1},
	fnWindowMoveCursor:    {"window_move_cursor", 3},
	fnWindowGetStream:     {"window_get_stream", 1},
	fnWindowSetEcho:       {"window_set_echo_stream", 2},
	fnWindowGetEcho:       {"window_get_echo_stream", 1},
	fnSetWindow:           {"set_window", 1},
	fnWindowGetSibling:    {"window_get_sibling", 1},
	fnStreamIterate:       {"stream_iterate", 2},
	fnStreamGetRock:       {"stream_get_rock", 1},
	fnStreamOpenFile:      {"stream_open_file", 3},
	fnStreamOpenMemory:    {"stream_open_memory", 4},
	fnStreamClose:         {"stream_close", 2},
	fnStreamSetPosition:   {"stream_set_position", 3},
	fnStreamGetPosition:   {"stream_get_position", 1},
	fnStreamSetCurrent:    {"stream_set_current", 1},
	fnStreamGetCurrent:    {"stream_get_current", 0},
	fnFilerefCreateTemp:   {"fileref_create_temp", 2},
	fnFilerefCreateByName: {"fileref_create_by_name", 3},
	fnFilerefCreateByPrmt: {"fileref_create_by_prompt", 3},
	fnFilerefDestroy:      {"fileref_destroy", 1},
	fnFilerefIterate:      {"fileref_iterate", 2},
	fnFilerefGetRock:      {"fileref_get_rock", 1},
	fnFilerefDeleteFile:   {"fileref_delete_file", 1},
	fnFilerefDoesExist:    {"fileref_does_file_exist", 1},
	fnFilerefFromFileref:  {"fileref_create_from_fileref", 3},
	fnPutChar:             {"put_char", 1},
	fnPutCharStream:       {"put_char_stream", 2},
	fnPutString:           {"put_string", 1},
	fnPutStringStream:     {"put_string_stream", 2},
	fnPutBuffer:           {"put_buffer", 2},
	fnPutBufferStream:     {"put_buffer_stream", 3},
	fnSetStyle:            {"set_style", 1},
	fnSetStyleStream:      {"set_style_stream", 2},
	fnGetCharStream:       {"get_char_stream", 1},
	fnGetLineStream:       {"get_line_stream", 3},
	fnGetBufferStream:     {"get_buffer_stream", 3},
	fnCharToLower:         {"char_to_lower", 1},
	fnCharToUpper:         {"char_to_upper", 1},
	fnStylehintSet:        {"stylehint_set", 4},
	fnStylehintClear:      {"stylehint_clear", 3},
	fnStyleDistinguish:    {"style_distinguish", 3},
	fnStyleMeasure:        {"style_measure", 4},
	fnSelect:              {"select", 1},
	fnSelectPoll:          {"select_poll", 1},
	fnRequestLineEvent:    {"request_line_event", 4},
	fnCancelLineEvent:     {"cancel_line_event", 2},
	fnRequestCharEvent:    {"request_char_event", 1},
	fnCancelCharEvent:     {"cancel_char_event", 1},
	fnRequestMouseEvent:   {"request_mouse_event", 1},
	fnCancelMouseEvent:    {"cancel_mouse_event", 1},
	fnRequestTimerEvents:  {"request_timer_events", 1},
	fnImageGetInfo:        {"image_get_info", 3},
	fnImageDraw:           {"image_draw", 4},
	fnImageDrawScaled:     {"image_draw_scaled", 6},
	fnSetHyperlink:        {"set_hyperlink", 1},
	fnSetHyperlinkStream:  {"set_hyperlink_stream", 2},
	fnRequestHyperlink:    {"request_hyperlink_event", 1},
	fnCancelHyperlink:     {"cancel_hyperlink_event", 1},
	fnBufferToLowerUni:    {"buffer_to_lower_case_uni", 3},
	fnBufferToUpperUni:    {"buffer_to_upper_case_uni", 3},
	fnBufferToTitleUni:    {"buffer_to_title_case_uni", 4},
	fnPutCharUni:          {"put_char_uni", 1},
	fnPutStringUni:        {"put_string_uni", 1},
	fnPutBufferUni:        {"put_buffer_uni", 2},
	fnPutCharStreamUni:    {"put_char_stream_uni", 2},
	fnPutStringStreamUni:  {"put_string_stream_uni", 2},
	fnPutBufferStreamUni:  {"put_buffer_stream_uni", 3},
	fnGetCharStreamUni:    {"get_char_stream_uni", 1},
	fnGetBufferStreamUni:  {"get_buffer_stream_uni", 3},
	fnGetLineStreamUni:    {"get_line_stream_uni", 3},
	fnStreamOpenFileUni:   {"stream_open_file_uni", 3},
	fnStreamOpenMemoryUni: {"stream_open_memory_uni", 4},
	fnRequestCharEventUni: {"request_char_event_uni", 1},
	fnRequestLineEventUni: {"request_line_event_uni", 4},
	fnSetEchoLineEvent:    {"set_echo_line_event", 2},
	fnSetTerminatorsLine:  {"set_terminators_line_event", 3},
}

// gestalt selectors
const (
	gestaltVersion       = 0
	gestaltCharInput     = 1
	gestaltLineInput     = 2
	gestaltCharOutput    = 3
	gestaltUnicode       = 15
	gestaltUnicodeNorm   = 16
	gestaltLineInputEcho = 17

	glkVersion      = 0x00070500
	charOutputExact = 2
	keycodeUnknown  = 0xFFFFFFFF
	keycodeReturn   = 0xFFFFFFFA
	keycodeDelete   = 0xFFFFFFF9
	keycodeEscape   = 0xFFFFFFF8
	keycodeTab      = 0xFFFFFFF7
	stackRef        = 0xFFFFFFFF
)

// event types
const (
	evNone      = 0
	evCharInput = 2
	evLineInput = 3
)

// window types
const (
	wintypePair       = 1
	wintypeBlank      = 2
	wintypeTextBuffer = 3
	wintypeTextGrid   = 4
	wintypeGraphics   = 5
)

// file modes
const (
	filemodeWrite       = 0x01
	filemodeRead        = 0x02
	filemodeReadWrite   = 0x03
	filemodeWriteAppend = 0x05
)

// fileref usage
const (
	fileusageData        = 0x00
	fileusageSavedGame   = 0x01
	fileusageTranscript  = 0x02
	fileusageInputRecord = 0x03
	fileusageTypeMask    = 0x0F
	fileusageTextMode    = 0x100
)

// seek modes
const (
	seekmodeStart   = 0
	seekmodeCurrent = 1
	seekmodeEnd     = 2
)
