package models

import (
	"fmt"

	"github.com/dmitrijs2005/vat/internal/common"
)

// AnalysisType is the closed set of analyses the external processor offers.
// Adding a type means adding it here; dispatch targets are validated
// against AnalysisTypes at startup.
type AnalysisType string

const (
	AnalysisKP               AnalysisType = "kp"
	AnalysisFirstMeeting     AnalysisType = "first_meeting"
	AnalysisFollowUpMeeting  AnalysisType = "follow_up_meeting"
	AnalysisProtocol         AnalysisType = "protocol"
	AnalysisSpeaker1Psycho   AnalysisType = "speaker1_psycho"
	AnalysisSpeaker1Negative AnalysisType = "speaker1_negative"
	AnalysisSpeaker2Psycho   AnalysisType = "speaker2_psycho"
	AnalysisSpeaker2Negative AnalysisType = "speaker2_negative"
	AnalysisSpeaker3Psycho   AnalysisType = "speaker3_psycho"
	AnalysisSpeaker3Negative AnalysisType = "speaker3_negative"
	AnalysisSpeaker4Psycho   AnalysisType = "speaker4_psycho"
	AnalysisSpeaker4Negative AnalysisType = "speaker4_negative"
)

// AnalysisTypeInfo describes a type for clients.
type AnalysisTypeInfo struct {
	Type        AnalysisType
	DisplayName string
}

var analysisCatalog = []AnalysisTypeInfo{
	{AnalysisKP, "Commercial proposal"},
	{AnalysisFirstMeeting, "First meeting"},
	{AnalysisFollowUpMeeting, "Follow-up meeting"},
	{AnalysisProtocol, "Meeting protocol"},
	{AnalysisSpeaker1Psycho, "Speaker 1: psychological profile"},
	{AnalysisSpeaker1Negative, "Speaker 1: negative signals"},
	{AnalysisSpeaker2Psycho, "Speaker 2: psychological profile"},
	{AnalysisSpeaker2Negative, "Speaker 2: negative signals"},
	{AnalysisSpeaker3Psycho, "Speaker 3: psychological profile"},
	{AnalysisSpeaker3Negative, "Speaker 3: negative signals"},
	{AnalysisSpeaker4Psycho, "Speaker 4: psychological profile"},
	{AnalysisSpeaker4Negative, "Speaker 4: negative signals"},
}

// AnalysisTypes lists every known type in catalog order.
func AnalysisTypes() []AnalysisType {
	out := make([]AnalysisType, len(analysisCatalog))
	for i, info := range analysisCatalog {
		out[i] = info.Type
	}
	return out
}

// AnalysisCatalog returns a copy of the type catalog with display names.
func AnalysisCatalog() []AnalysisTypeInfo {
	return append([]AnalysisTypeInfo(nil), analysisCatalog...)
}

// ParseAnalysisType validates s against the closed set.
func ParseAnalysisType(s string) (AnalysisType, error) {
	for _, info := range analysisCatalog {
		if string(info.Type) == s {
			return info.Type, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownAnalysisType, s)
}
