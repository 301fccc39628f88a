// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package beetle_protocol

import (
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates on a link
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames     uint64
	ValidFrames     uint64
	CRCErrors       uint64
	DecodeErrors    uint64
	MalformedFrames uint64
	UnknownTypes    uint64
	RangeErrors     uint64

	// Per-type counters for the interesting traffic
	IMUFrames      uint64
	GunshotFrames  uint64
	VestshotFrames uint64
	NakFrames      uint64
	KillFrames     uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics based on a frame and its errors
func (s *Statistics) Update(frame *Frame, decodeErr error, validationErrors []ValidationError) {
	s.TotalFrames++

	if decodeErr != nil {
		if _, ok := decodeErr.(*CRCError); ok {
			s.CRCErrors++
		} else {
			s.DecodeErrors++
		}
		return
	}

	switch frame.Type() {
	case FrameIMU:
		s.IMUFrames++
	case FrameGunshot:
		s.GunshotFrames++
	case FrameVestshot:
		s.VestshotFrames++
	case FrameNak:
		s.NakFrames++
	case FrameKill:
		s.KillFrames++
	}

	if len(validationErrors) > 0 {
		for _, err := range validationErrors {
			switch err.Type {
			case AnomalyUnknownType:
				s.UnknownTypes++
			case AnomalyBulletRange, AnomalyShieldRange, AnomalyHealthRange:
				s.RangeErrors++
			}
		}
		s.MalformedFrames++
	} else {
		s.ValidFrames++
	}

	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		errorCount := s.CRCErrors + s.DecodeErrors + s.MalformedFrames
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, crcErrorPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		crcErrorPercent = float64(s.CRCErrors) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.CRCErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d (%.1f%%)\n", s.CRCErrors, crcErrorPercent)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", s.MalformedFrames)
		if s.UnknownTypes > 0 {
			result += fmt.Sprintf("  Unknown Types:    %5d\n", s.UnknownTypes)
		}
		if s.RangeErrors > 0 {
			result += fmt.Sprintf("  Range Errors:     %5d\n", s.RangeErrors)
		}
	}

	result += fmt.Sprintf("IMU:             %8d\n", s.IMUFrames)
	result += fmt.Sprintf("Gunshots:        %8d\n", s.GunshotFrames)
	result += fmt.Sprintf("Vestshots:       %8d\n", s.VestshotFrames)
	if s.NakFrames > 0 {
		result += fmt.Sprintf("NAKs:            %8d\n", s.NakFrames)
	}
	if s.KillFrames > 0 {
		result += fmt.Sprintf("KILLs:           %8d\n", s.KillFrames)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	*s = Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}
