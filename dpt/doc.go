// Package dpt implements the KNX Datapoint Type registry: conversion
// between application values (bool, float64, string, time.Time, colours,
// …) and the raw octet sequences carried in telegram payloads.
//
// Each concrete type is identified by a "major.minor" string such as
// "9.001" and implements Encode/Decode against that octet layout. The
// registry is a static, read-only map populated at package init time;
// it is never mutated after startup.
package dpt
