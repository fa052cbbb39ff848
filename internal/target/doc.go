// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package target identifies the hardware a schedule recipe was discovered on.
// Recipes are only valid for the exact target they were searched for, so every
// store lookup is scoped by the namespace string built here.
package target
