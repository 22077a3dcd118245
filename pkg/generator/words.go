// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package generator

// Lowercase ASCII words only. The passphrase separator and the trailing number must never
// appear inside a word.
var wordList = []string{
	"apple", "banana", "orange", "grape", "melon", "cherry", "lemon", "kiwi",
	"peach", "plum", "mango", "papaya", "guava", "lime", "fig", "olive",
	"wolf", "tiger", "eagle", "shark", "bear", "otter", "falcon", "badger",
	"heron", "lynx", "moose", "bison", "raven", "gecko", "koala", "panda",
	"river", "canyon", "meadow", "glacier", "island", "forest", "desert", "valley",
	"harbor", "summit", "lagoon", "prairie", "tundra", "delta", "marsh", "ridge",
	"anchor", "lantern", "compass", "kettle", "ladder", "mirror", "pencil", "saddle",
	"hammer", "bucket", "candle", "basket", "button", "rocket", "teapot", "violin",
	"amber", "cobalt", "crimson", "indigo", "ivory", "jade", "scarlet", "silver",
	"copper", "velvet", "marble", "granite", "quartz", "cedar", "maple", "willow",
	"thunder", "breeze", "frost", "ember", "comet", "nebula", "orbit", "planet",
	"galaxy", "meteor", "aurora", "zephyr", "monsoon", "drizzle", "blizzard", "sunset",
	"piano", "guitar", "trumpet", "banjo", "cello", "flute", "harp", "drum",
	"castle", "bridge", "tower", "temple", "cabin", "garden", "market", "village",
}
